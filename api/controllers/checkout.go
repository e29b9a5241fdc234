package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CheckoutService places orders.
type CheckoutService interface {
	Checkout(ctx context.Context, req checkoutsvc.Request) (*checkoutsvc.Confirmation, error)
}

type checkoutRequest struct {
	Contact          checkoutContact       `json:"contact"`
	ShippingAddress  *types.Address        `json:"shipping_address,omitempty"`
	Items            []checkoutRequestItem `json:"items" validate:"required,min=1,dive"`
	Mode             string                `json:"mode" validate:"required,oneof=redirect embedded payment_element express"`
	ShippingOptionID string                `json:"shipping_option_id,omitempty" validate:"max=128"`
	SourceToken      string                `json:"source_token,omitempty" validate:"max=512"`
	TotalCents       *int64                `json:"total_cents,omitempty"`
}

type checkoutContact struct {
	Email string  `json:"email" validate:"required"`
	Name  string  `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type checkoutRequestItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity" validate:"gt=0,lte=10000"`
	UnitPriceCents *int64    `json:"unit_price_cents,omitempty"`
}

// Checkout places an order for the submitted cart and returns the
// confirmation with 201.
func Checkout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmation, err := svc.Checkout(r.Context(), payload.toRequest())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}

func (p checkoutRequest) toRequest() checkoutsvc.Request {
	req := checkoutsvc.Request{
		Contact: helpers.Contact{
			Email: p.Contact.Email,
			Name:  p.Contact.Name,
			Phone: p.Contact.Phone,
		},
		Mode:             enums.CheckoutMode(p.Mode),
		ShippingOptionID: p.ShippingOptionID,
		SourceToken:      p.SourceToken,
		ClientTotalCents: p.TotalCents,
		Items:            make([]checkoutsvc.RequestItem, 0, len(p.Items)),
	}
	if p.ShippingAddress != nil {
		req.ShippingAddress = *p.ShippingAddress
	}
	for _, item := range p.Items {
		req.Items = append(req.Items, checkoutsvc.RequestItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return req
}
