package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/danceschool/portal/internal/ui/types"
)

func modalityPath(id string) string {
	return "/modalities/" + url.PathEscape(id)
}

// ListModalities returns one page of modalities, optionally filtered by a search term
func (c *Client) ListModalities(ctx context.Context, accessToken string, page int, search string) (*types.ModalityPage, error) {
	query := NewQuery("page", strconv.Itoa(max(page, 1)))
	if search != "" {
		query = query.Set("search", search)
	}

	res, err := c.Get(ctx, "/modalities", query, WithBearerToken(accessToken))
	if err != nil {
		return nil, err
	}

	modalities, err := DecodeRecord[types.ModalityPage](res)
	if err != nil {
		return nil, err
	}
	return &modalities, nil
}

// GetModality fetches a single modality
func (c *Client) GetModality(ctx context.Context, accessToken, id string) (*types.Modality, error) {
	res, err := c.Get(ctx, modalityPath(id), nil, WithBearerToken(accessToken))
	if err != nil {
		return nil, err
	}

	modality, err := DecodeRecord[types.Modality](res)
	if err != nil {
		return nil, err
	}
	return &modality, nil
}

// CreateModality creates a new modality and returns the stored record
func (c *Client) CreateModality(ctx context.Context, accessToken string, req types.ModalityRequest) (*types.Modality, error) {
	res, err := c.Post(ctx, "/modalities", req, WithBearerToken(accessToken))
	if err != nil {
		return nil, err
	}

	modality, err := DecodeRecord[types.Modality](res)
	if err != nil {
		return nil, err
	}
	return &modality, nil
}

// UpdateModality replaces a modality
func (c *Client) UpdateModality(ctx context.Context, accessToken, id string, req types.ModalityRequest) (*types.Modality, error) {
	res, err := c.Put(ctx, modalityPath(id), req, WithBearerToken(accessToken))
	if err != nil {
		return nil, err
	}

	modality, err := DecodeRecord[types.Modality](res)
	if err != nil {
		return nil, err
	}
	return &modality, nil
}

// SetModalityActive enables or disables a modality
func (c *Client) SetModalityActive(ctx context.Context, accessToken, id string, active bool) (*types.Modality, error) {
	res, err := c.Patch(ctx, modalityPath(id), types.ModalityStatusRequest{Active: active}, WithBearerToken(accessToken))
	if err != nil {
		return nil, err
	}

	modality, err := DecodeRecord[types.Modality](res)
	if err != nil {
		return nil, err
	}
	return &modality, nil
}

// DeleteModality removes a modality
func (c *Client) DeleteModality(ctx context.Context, accessToken, id string) error {
	_, err := c.Delete(ctx, modalityPath(id), WithBearerToken(accessToken))
	return err
}
