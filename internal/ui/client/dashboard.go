package client

import (
	"context"

	"github.com/danceschool/portal/internal/ui/types"
)

// GetDashboardSummary fetches the headline figures for the dashboard
func (c *Client) GetDashboardSummary(ctx context.Context, accessToken string) (*types.DashboardSummary, error) {
	res, err := c.Get(ctx, "/dashboard/summary", nil, WithBearerToken(accessToken))
	if err != nil {
		return nil, err
	}

	summary, err := DecodeRecord[types.DashboardSummary](res)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetFinancialSummary fetches the financial summary for a period ("2026-10", "2026-Q3", "2026").
// An empty period lets the API choose the current month.
func (c *Client) GetFinancialSummary(ctx context.Context, accessToken, period string) (*types.FinancialSummary, error) {
	var query Query
	if period != "" {
		query = query.Set("period", period)
	}

	res, err := c.Get(ctx, "/financial/summary", query, WithBearerToken(accessToken))
	if err != nil {
		return nil, err
	}

	summary, err := DecodeRecord[types.FinancialSummary](res)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
