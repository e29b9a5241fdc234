package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Product is the catalog row plus its inventory counters. Stock is derived
// from the delivery queue and rewritten on every ledger save.
type Product struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	SKU            string         `gorm:"column:sku;not null;uniqueIndex:ux_products_sku"`
	Title          string         `gorm:"column:title;not null"`
	PriceCents     int64          `gorm:"column:price_cents;not null"`
	Currency       enums.Currency `gorm:"column:currency;type:text;not null"`
	IsActive       bool           `gorm:"column:is_active;not null"`
	MaxQtyPerOrder *int           `gorm:"column:max_qty_per_order"`
	WeightGrams    int            `gorm:"column:weight_grams;not null;default:0"`
	Stock          int            `gorm:"column:stock;not null;default:0"`
	AllocatedStock int            `gorm:"column:allocated_stock;not null;default:0"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Available is the stock not yet promised to a pending order.
func (p Product) Available() int {
	return p.Stock - p.AllocatedStock
}
