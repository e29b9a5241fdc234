package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Summary is one row of the admin order listing.
type Summary struct {
	ID                 uuid.UUID               `json:"id"`
	OrderNumber        string                  `json:"order_number"`
	CustomerEmail      string                  `json:"customer_email"`
	Status             enums.OrderStatus       `json:"status"`
	PaymentStatus      enums.PaymentStatus     `json:"payment_status"`
	FulfillmentStatus  enums.FulfillmentStatus `json:"fulfillment_status"`
	TotalCents         int64                   `json:"total_cents"`
	Currency           enums.Currency          `json:"currency"`
	InventoryCommitted bool                    `json:"inventory_committed"`
	AllocationReleased bool                    `json:"allocation_released"`
	CreatedAt          time.Time               `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ItemView is an order line as shown to the customer.
type ItemView struct {
	ProductID      uuid.UUID `json:"product_id"`
	SKU            string    `json:"sku"`
	Title          string    `json:"title"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// View is the customer-facing order status read.
type View struct {
	OrderNumber       string                  `json:"order_number"`
	Status            enums.OrderStatus       `json:"status"`
	PaymentStatus     enums.PaymentStatus     `json:"payment_status"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillment_status"`
	SubtotalCents     int64                   `json:"subtotal_cents"`
	ShippingCents     int64                   `json:"shipping_cents"`
	DiscountCents     int64                   `json:"discount_cents"`
	TotalCents        int64                   `json:"total_cents"`
	Currency          enums.Currency          `json:"currency"`
	TrackingNumber    *string                 `json:"tracking_number,omitempty"`
	Items             []ItemView              `json:"items"`
	CreatedAt         time.Time               `json:"created_at"`
	PaidAt            *time.Time              `json:"paid_at,omitempty"`
}

func newSummary(order models.Order) Summary {
	return Summary{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		CustomerEmail:      order.CustomerEmail,
		Status:             order.Status,
		PaymentStatus:      order.PaymentStatus,
		FulfillmentStatus:  order.FulfillmentStatus,
		TotalCents:         order.TotalCents,
		Currency:           order.Currency,
		InventoryCommitted: order.InventoryCommitted,
		AllocationReleased: order.AllocationReleased,
		CreatedAt:          order.CreatedAt,
	}
}

func newView(order *models.Order) *View {
	view := &View{
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		SubtotalCents:     order.SubtotalCents,
		ShippingCents:     order.ShippingCents,
		DiscountCents:     order.DiscountCents,
		TotalCents:        order.TotalCents,
		Currency:          order.Currency,
		TrackingNumber:    order.TrackingNumber,
		Items:             make([]ItemView, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
		PaidAt:            order.PaidAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, ItemView{
			ProductID:      item.ProductID,
			SKU:            item.SKU,
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return view
}
