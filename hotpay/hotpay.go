// Package hotpay integrates HOT Pay: payment-link generation (pure URL
// construction) and processed-payment history queries against the HOT Labs
// partner API.
package hotpay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neptuneai/swap-agent/core"
)

const (
	// BaseURL is the HOT Labs partner API.
	BaseURL = "https://api.hot-labs.org"
	// FrontendURL is the payment page links point at.
	FrontendURL = "https://pay.hot-labs.org"
)

// PaymentLink is a shareable payment request. Anyone with the URL can pay
// from any supported chain; the merchant receives the named token on NEAR.
type PaymentLink struct {
	URL            string  `json:"payment_url"`
	MerchantWallet string  `json:"merchant_wallet"`
	Amount         float64 `json:"amount"`
	Token          string  `json:"token"`
	Memo           string  `json:"memo,omitempty"`
}

// Payment is one processed payment from the partner API.
type Payment struct {
	ID        string  `json:"id"`
	LinkID    string  `json:"item_id"`
	Memo      string  `json:"memo"`
	SenderID  string  `json:"sender_id"`
	Amount    float64 `json:"amount"`
	Token     string  `json:"token"`
	Timestamp int64   `json:"timestamp"`
}

// HistoryFilters narrows a payment history query. Zero values mean no filter.
type HistoryFilters struct {
	LinkID   string
	Memo     string
	SenderID string
}

// Client talks to the HOT Pay API. History queries need an API token;
// link creation is local and needs none.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a HOT Pay client. apiToken may be empty, in which case
// only link creation works.
func NewClient(apiToken string) *Client {
	return &Client{
		baseURL:  BaseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// CreatePaymentLink builds a payment URL for the merchant wallet. No network
// call is made and the only failure mode is malformed input.
func (c *Client) CreatePaymentLink(merchantWallet string, amount float64, token, memo string) (PaymentLink, error) {
	if strings.TrimSpace(merchantWallet) == "" {
		return PaymentLink{}, fmt.Errorf("merchant wallet is required")
	}
	if amount <= 0 {
		return PaymentLink{}, fmt.Errorf("amount must be positive")
	}
	if token == "" {
		token = "USDC"
	}
	token = strings.ToUpper(token)

	params := url.Values{}
	params.Set("to", merchantWallet)
	params.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	params.Set("token", token)
	if memo != "" {
		params.Set("memo", memo)
	}

	return PaymentLink{
		URL:            FrontendURL + "/?" + params.Encode(),
		MerchantWallet: merchantWallet,
		Amount:         amount,
		Token:          token,
		Memo:           memo,
	}, nil
}

// PaymentHistory fetches processed payments, newest first. Each call is a
// fresh remote query; nothing is cached.
func (c *Client) PaymentHistory(ctx context.Context, filters HistoryFilters, limit, offset int) ([]Payment, error) {
	if c.apiToken == "" {
		return nil, fmt.Errorf("%w: HOT Pay API token not configured, generate one under pay.hot-labs.org/admin/api-keys", core.ErrUnauthorized)
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if filters.LinkID != "" {
		params.Set("item_id", filters.LinkID)
	}
	if filters.Memo != "" {
		params.Set("memo", filters.Memo)
	}
	if filters.SenderID != "" {
		params.Set("sender_id", filters.SenderID)
	}

	endpoint := c.baseURL + "/partners/processed_payments?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: check the configured HOT Pay API token", core.ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &core.UpstreamError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result struct {
		Payments []Payment `json:"payments"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return result.Payments, nil
}
