package client

import (
	"context"

	"github.com/danceschool/portal/internal/ui/types"
)

// Login authenticates an account with the API and returns the issued tokens
func (c *Client) Login(ctx context.Context, email, password string) (*types.AccessTokenDetails, error) {
	res, err := c.Post(ctx, "/auth/login", types.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	details, err := DecodeRecord[types.AccessTokenDetails](res)
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// RefreshToken exchanges a refresh token for a new access token.
// The API rotates refresh tokens: the returned details carry the replacement.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*types.AccessTokenDetails, error) {
	res, err := c.Post(ctx, "/auth/refresh", types.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	details, err := DecodeRecord[types.AccessTokenDetails](res)
	if err != nil {
		return nil, err
	}
	return &details, nil
}
