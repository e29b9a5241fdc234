package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DeliveryInput is a received batch.
type DeliveryInput struct {
	Lot          string
	Quantity     int
	CostPerUnit  decimal.Decimal
	DeliveryDate *time.Time
	ExpiryDate   *time.Time
}

// Summary is the admin view of a product's ledger.
type Summary struct {
	ProductID      uuid.UUID                  `json:"product_id"`
	SKU            string                     `json:"sku"`
	Stock          int                        `json:"stock"`
	AllocatedStock int                        `json:"allocated_stock"`
	Available      int                        `json:"available"`
	TotalCost      decimal.Decimal            `json:"total_cost"`
	AverageCost    decimal.Decimal            `json:"average_cost"`
	Deliveries     []DeliveryView             `json:"deliveries"`
}

// DeliveryView is one queued delivery in FIFO order.
type DeliveryView struct {
	ID           uuid.UUID       `json:"id"`
	Lot          string          `json:"lot,omitempty"`
	Quantity     int             `json:"quantity"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
}

// ProductInput describes a new catalog product. Stock starts at zero and
// only grows through received deliveries.
type ProductInput struct {
	SKU            string
	Title          string
	PriceCents     int64
	Currency       enums.Currency
	MaxQtyPerOrder *int
	WeightGrams    int
}

// Service handles inventory receiving and read models.
type Service struct {
	tx   txRunner
	repo *Repository
	logg *logger.Logger
}

func NewService(tx txRunner, repo *Repository, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{tx: tx, repo: repo, logg: logg}
}

// CreateProduct adds an active product with an empty delivery queue.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency").
			WithDetails(map[string]any{"currency": input.Currency})
	}
	if input.MaxQtyPerOrder != nil && *input.MaxQtyPerOrder <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max quantity per order must be positive")
	}
	if input.WeightGrams < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must not be negative")
	}

	product := &models.Product{
		SKU:            sku,
		Title:          strings.TrimSpace(input.Title),
		PriceCents:     input.PriceCents,
		Currency:       input.Currency,
		IsActive:       true,
		MaxQtyPerOrder: input.MaxQtyPerOrder,
		WeightGrams:    input.WeightGrams,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product created")
	return product, nil
}

// ReceiveDelivery appends a delivery to the product's queue and recomputes stock.
func (s *Service) ReceiveDelivery(ctx context.Context, productID uuid.UUID, input DeliveryInput) (*Summary, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.CostPerUnit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost per unit must not be negative")
	}
	if input.DeliveryDate != nil && input.ExpiryDate != nil && input.ExpiryDate.Before(*input.DeliveryDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry date precedes delivery date")
	}

	var summary *Summary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledger, err := repo.LoadLedger(ctx, productID)
		if err != nil {
			return err
		}
		ledger.Receive(models.InventoryDelivery{
			Lot:          strings.TrimSpace(input.Lot),
			Quantity:     input.Quantity,
			CostPerUnit:  input.CostPerUnit,
			DeliveryDate: input.DeliveryDate,
			ExpiryDate:   input.ExpiryDate,
		})
		if err := repo.SaveLedger(ctx, ledger); err != nil {
			return err
		}
		summary = summarize(ledger)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"product_id": productID.String(),
		"quantity":   input.Quantity,
		"stock":      summary.Stock,
	})
	s.logg.Info(ctx, "inventory delivery received")
	return summary, nil
}

func (s *Service) Summary(ctx context.Context, productID uuid.UUID) (*Summary, error) {
	ledger, err := s.repo.LoadLedger(ctx, productID)
	if err != nil {
		return nil, err
	}
	return summarize(ledger), nil
}

func summarize(ledger *Ledger) *Summary {
	return &Summary{
		ProductID:      ledger.Product.ID,
		SKU:            ledger.Product.SKU,
		Stock:          ledger.Product.Stock,
		AllocatedStock: ledger.Product.AllocatedStock,
		Available:      ledger.Available(),
		TotalCost:      ledger.TotalCost(),
		AverageCost:    ledger.AverageCost(),
		Deliveries:     deliveryViews(ledger.Deliveries),
	}
}

func deliveryViews(deliveries []models.InventoryDelivery) []DeliveryView {
	views := make([]DeliveryView, 0, len(deliveries))
	for _, d := range deliveries {
		views = append(views, DeliveryView{
			ID:           d.ID,
			Lot:          d.Lot,
			Quantity:     d.Quantity,
			CostPerUnit:  d.CostPerUnit,
			TotalCost:    d.TotalCost,
			DeliveryDate: d.DeliveryDate,
			ExpiryDate:   d.ExpiryDate,
		})
	}
	return views
}
