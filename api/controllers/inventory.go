package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type InventoryService interface {
	CreateProduct(ctx context.Context, input inventory.ProductInput) (*models.Product, error)
	ReceiveDelivery(ctx context.Context, productID uuid.UUID, input inventory.DeliveryInput) (*inventory.Summary, error)
	Summary(ctx context.Context, productID uuid.UUID) (*inventory.Summary, error)
}

type createProductRequest struct {
	SKU            string `json:"sku" validate:"required,max=64"`
	Title          string `json:"title" validate:"required,max=200"`
	PriceCents     int64  `json:"price_cents" validate:"gte=0"`
	Currency       string `json:"currency" validate:"required,len=3"`
	MaxQtyPerOrder *int   `json:"max_qty_per_order,omitempty" validate:"omitempty,gt=0"`
	WeightGrams    int    `json:"weight_grams" validate:"gte=0"`
}

type productResponse struct {
	ID             uuid.UUID      `json:"id"`
	SKU            string         `json:"sku"`
	Title          string         `json:"title"`
	PriceCents     int64          `json:"price_cents"`
	Currency       enums.Currency `json:"currency"`
	IsActive       bool           `json:"is_active"`
	MaxQtyPerOrder *int           `json:"max_qty_per_order,omitempty"`
	WeightGrams    int            `json:"weight_grams"`
	Stock          int            `json:"stock"`
}

type receiveDeliveryRequest struct {
	Lot          string          `json:"lot,omitempty" validate:"max=64"`
	Quantity     int             `json:"quantity" validate:"gt=0"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
}

// AdminCreateProduct adds a catalog product with no stock.
func AdminCreateProduct(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), inventory.ProductInput{
			SKU:            payload.SKU,
			Title:          payload.Title,
			PriceCents:     payload.PriceCents,
			Currency:       enums.Currency(payload.Currency),
			MaxQtyPerOrder: payload.MaxQtyPerOrder,
			WeightGrams:    payload.WeightGrams,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, productResponse{
			ID:             product.ID,
			SKU:            product.SKU,
			Title:          product.Title,
			PriceCents:     product.PriceCents,
			Currency:       product.Currency,
			IsActive:       product.IsActive,
			MaxQtyPerOrder: product.MaxQtyPerOrder,
			WeightGrams:    product.WeightGrams,
			Stock:          product.Stock,
		})
	}
}

// AdminReceiveDelivery appends a delivery to a product's FIFO queue.
func AdminReceiveDelivery(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload receiveDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.ReceiveDelivery(r.Context(), productID, inventory.DeliveryInput{
			Lot:          payload.Lot,
			Quantity:     payload.Quantity,
			CostPerUnit:  payload.CostPerUnit,
			DeliveryDate: payload.DeliveryDate,
			ExpiryDate:   payload.ExpiryDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}

// AdminInventorySummary reports stock, allocation and cost for a product.
func AdminInventorySummary(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
