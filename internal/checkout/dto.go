package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Request is a checkout submission. Client-side prices and totals are
// accepted for compatibility but never read.
type Request struct {
	Contact          helpers.Contact
	ShippingAddress  types.Address
	Items            []RequestItem
	Mode             enums.CheckoutMode
	ShippingOptionID string
	SourceToken      string
	ClientTotalCents *int64
}

// RequestItem is one cart line as submitted.
type RequestItem struct {
	ProductID      uuid.UUID
	Quantity       int
	UnitPriceCents *int64
}

// Confirmation is returned to the shopper after a successful checkout.
type Confirmation struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	SubtotalCents int64               `json:"subtotal_cents"`
	ShippingCents int64               `json:"shipping_cents"`
	DiscountCents int64               `json:"discount_cents"`
	TotalCents    int64               `json:"total_cents"`
	Currency      enums.Currency      `json:"currency"`
	Payment       *Payment            `json:"payment,omitempty"`
}

// Payment tells the client how to continue collecting payment.
type Payment struct {
	Provider     string `json:"provider"`
	Reference    string `json:"reference"`
	ClientSecret string `json:"client_secret,omitempty"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	Status       string `json:"status,omitempty"`
}
