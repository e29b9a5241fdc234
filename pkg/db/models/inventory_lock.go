package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryLock is an expiring per-product checkout mutex.
type InventoryLock struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	LockToken string    `gorm:"column:lock_token;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index:ix_inventory_locks_expires_at"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
