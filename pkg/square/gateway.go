package square

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/payments"
)

// CreatePaymentSession charges the Web Payments SDK token collected by the
// embedded card form (or an Apple/Google Pay wallet for express checkout).
// The payment reference_id carries the order id so webhooks can find the order.
func (c *Client) CreatePaymentSession(ctx context.Context, req payments.SessionRequest) (*payments.Session, error) {
	switch req.Mode {
	case enums.CheckoutModeEmbedded, enums.CheckoutModePaymentElement, enums.CheckoutModeExpress:
	case enums.CheckoutModeRedirect:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redirect checkout is not supported by the square gateway").
			WithDetails(map[string]any{"mode": req.Mode})
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown checkout mode %q", req.Mode))
	}
	if strings.TrimSpace(req.SourceToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source token is required").
			WithDetails(map[string]any{"field": "source_token"})
	}

	key := req.IdempotencyKey
	if key == "" {
		key = "order-" + req.OrderID.String()
	}

	payment, err := c.CreatePayment(ctx, PaymentCreateParams{
		AmountCents:    req.AmountCents,
		Currency:       req.Currency.String(),
		SourceID:       req.SourceToken,
		IdempotencyKey: key,
		Note:           "Order " + req.OrderNumber,
		ReferenceID:    req.OrderID.String(),
	})
	if err != nil {
		return nil, err
	}

	return &payments.Session{
		Provider:  ProviderName,
		Reference: stringValue(payment.GetID()),
		Status:    stringValue(payment.GetStatus()),
	}, nil
}
