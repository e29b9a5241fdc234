// Package payments defines the contract between checkout and a payment
// provider. Providers return an opaque reference and later report the
// outcome asynchronously through webhooks.
package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// SessionRequest asks a provider to start collecting payment for an order.
type SessionRequest struct {
	OrderID        uuid.UUID
	OrderNumber    string
	AmountCents    int64
	Currency       enums.Currency
	Mode           enums.CheckoutMode
	SourceToken    string
	CustomerEmail  string
	IdempotencyKey string
}

// Session is the payment continuation handed back to the shopper.
type Session struct {
	Provider     string `json:"provider"`
	Reference    string `json:"reference"`
	ClientSecret string `json:"client_secret,omitempty"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	Status       string `json:"status,omitempty"`
}

// Gateway creates payment sessions.
type Gateway interface {
	CreatePaymentSession(ctx context.Context, req SessionRequest) (*Session, error)
}
