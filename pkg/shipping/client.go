package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const responseBodyReadLimit int64 = 1024

var errBaseURLRequired = errors.New("shipping base url is required")

// Client talks to the carrier aggregation service for rate quotes and labels.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ClientOption configures optional client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the shipping client for baseURL.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Option is one priced delivery choice.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amount_cents"`
}

// LabelRequest describes the parcel for label purchase.
type LabelRequest struct {
	OrderNumber string        `json:"order_number"`
	Recipient   string        `json:"recipient"`
	Address     types.Address `json:"address"`
	WeightGrams int           `json:"weight_grams"`
	OptionID    string        `json:"option_id,omitempty"`
}

// Label is a purchased shipping label.
type Label struct {
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
}

// Quote returns delivery options to the destination postal code.
func (c *Client) Quote(ctx context.Context, postalCode string) ([]Option, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	trimmed := strings.TrimSpace(postalCode)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination postal code is required")
	}

	endpoint := fmt.Sprintf("%s/quotes?postal_code=%s", c.baseURL, url.QueryEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build quote request")
	}

	var apiResp struct {
		Options []Option `json:"options"`
	}
	if err := c.do(httpReq, &apiResp, "quote"); err != nil {
		return nil, err
	}
	return apiResp.Options, nil
}

// CreateLabel purchases a label for a paid order.
func (c *Client) CreateLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal label request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/labels", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build label request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var label Label
	if err := c.do(httpReq, &label, "label"); err != nil {
		return nil, err
	}
	return &label, nil
}

func (c *Client) do(httpReq *http.Request, out any, op string) error {
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", op))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), fmt.Sprintf("%s request failed", op))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", op))
	}
	return nil
}

// Cheapest returns the lowest priced option, or the one matching selectedID
// when it is present in options.
func Cheapest(options []Option, selectedID string) (Option, bool) {
	if len(options) == 0 {
		return Option{}, false
	}
	if selectedID != "" {
		for _, opt := range options {
			if opt.ID == selectedID {
				return opt, true
			}
		}
	}
	best := options[0]
	for _, opt := range options[1:] {
		if opt.AmountCents < best.AmountCents {
			best = opt
		}
	}
	return best, true
}
