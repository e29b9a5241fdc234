package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryDelivery is one received batch in a product's FIFO queue.
type InventoryDelivery struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index:ix_inventory_deliveries_product"`
	Lot          string          `gorm:"column:lot;not null;default:''"`
	Quantity     int             `gorm:"column:quantity;not null"`
	CostPerUnit  decimal.Decimal `gorm:"column:cost_per_unit;type:numeric(12,4);not null"`
	TotalCost    decimal.Decimal `gorm:"column:total_cost;type:numeric(14,4);not null"`
	DeliveryDate *time.Time      `gorm:"column:delivery_date"`
	ExpiryDate   *time.Time      `gorm:"column:expiry_date"`
	Position     int64           `gorm:"column:position;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *InventoryDelivery) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
