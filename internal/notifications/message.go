package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Message is a rendered notification handed to a Sender. Key orders
// messages for the same order on the transport.
type Message struct {
	Kind    string            `json:"kind"`
	To      string            `json:"to"`
	From    string            `json:"from,omitempty"`
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
	Key     string            `json:"-"`
}

const KindOrderConfirmation = "order_confirmation"

// ComposeOrderConfirmation renders the plain-text confirmation for a paid order.
func ComposeOrderConfirmation(order *models.Order, from string) Message {
	var body strings.Builder
	name := strings.TrimSpace(order.CustomerName)
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&body, "Hi %s,\n\nThanks for your order %s.\n\n", name, order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&body, "  %d x %s (%s)  %s\n", item.Quantity, item.Title, item.SKU, formatCents(item.LineTotalCents, string(order.Currency)))
	}
	fmt.Fprintf(&body, "\nSubtotal: %s\n", formatCents(order.SubtotalCents, string(order.Currency)))
	fmt.Fprintf(&body, "Shipping: %s\n", formatCents(order.ShippingCents, string(order.Currency)))
	if order.DiscountCents > 0 {
		fmt.Fprintf(&body, "Discount: -%s\n", formatCents(order.DiscountCents, string(order.Currency)))
	}
	fmt.Fprintf(&body, "Total: %s\n", formatCents(order.TotalCents, string(order.Currency)))

	return Message{
		Kind:    KindOrderConfirmation,
		To:      order.CustomerEmail,
		From:    from,
		Subject: "Order confirmation " + order.OrderNumber,
		Body:    body.String(),
		Data: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
		Key: order.ID.String(),
	}
}

func formatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}
