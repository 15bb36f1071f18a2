// Package nearintents wraps the NEAR Intents 1-Click SDK with bearer
// authentication and the small method surface the agent needs.
package nearintents

import (
	"context"
	"fmt"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
)

// Client wraps the 1click SDK with API key authentication.
type Client struct {
	api    *oneclick.APIClient
	apiKey string
}

// NewClient creates a new 1click API client. The API key may be empty;
// token listing and quoting work without one at reduced rate limits.
func NewClient(apiKey string) *Client {
	cfg := oneclick.NewConfiguration()
	return &Client{
		api:    oneclick.NewAPIClient(cfg),
		apiKey: apiKey,
	}
}

// authCtx returns a context with the bearer token set.
func (c *Client) authCtx(ctx context.Context) context.Context {
	if c.apiKey == "" {
		return ctx
	}
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.apiKey)
}

// Tokens fetches the full list of swappable tokens.
func (c *Client) Tokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	resp, _, err := c.api.OneClickAPI.GetTokens(c.authCtx(ctx)).Execute()
	if err != nil {
		return nil, fmt.Errorf("nearintents GetTokens: %w", err)
	}
	return resp, nil
}

// Quote requests a swap quote from the 1click API.
func (c *Client) Quote(ctx context.Context, req oneclick.QuoteRequest) (*oneclick.QuoteResponse, error) {
	resp, _, err := c.api.OneClickAPI.GetQuote(c.authCtx(ctx)).QuoteRequest(req).Execute()
	if err != nil {
		return nil, fmt.Errorf("nearintents GetQuote: %w", err)
	}
	return resp, nil
}

// ExecutionStatus checks the status of a swap by its deposit address.
func (c *Client) ExecutionStatus(ctx context.Context, depositAddress string) (string, error) {
	resp, _, err := c.api.OneClickAPI.GetExecutionStatus(c.authCtx(ctx)).DepositAddress(depositAddress).Execute()
	if err != nil {
		return "", fmt.Errorf("nearintents GetExecutionStatus: %w", err)
	}
	return resp.GetStatus(), nil
}
