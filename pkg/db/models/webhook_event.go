package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// WebhookEvent is the durable dedupe record for an inbound payment event.
// Rows are never deleted.
type WebhookEvent struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	EventID     string                `gorm:"column:event_id;not null;uniqueIndex:ux_webhook_events_event_id"`
	Provider    enums.WebhookProvider `gorm:"column:provider;type:text;not null"`
	Type        string                `gorm:"column:type;not null"`
	OrderID     *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	Processed   bool                  `gorm:"column:processed;not null"`
	ProcessedAt *time.Time            `gorm:"column:processed_at"`
	Error       *string               `gorm:"column:error"`
	Attempts    int                   `gorm:"column:attempts;not null;default:0"`
	Payload     string                `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *WebhookEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
