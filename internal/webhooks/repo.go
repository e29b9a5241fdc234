package webhooks

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const maxStoredErrorLen = 1000

// ErrDuplicateEvent means another delivery already recorded the event id.
var ErrDuplicateEvent = errors.New("webhook event already recorded")

// Repository persists webhook event records.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// FindByEventID returns nil without error when the event was never seen.
func (r *Repository) FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load webhook event")
	}
	return &event, nil
}

func (r *Repository) Create(ctx context.Context, event *models.WebhookEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if db.IsUniqueViolation(err, "ux_webhook_events_event_id") {
			return ErrDuplicateEvent
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record webhook event")
	}
	return nil
}

func (r *Repository) MarkProcessed(ctx context.Context, id uuid.UUID, orderID *uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed":    true,
			"processed_at": at,
			"order_id":     orderID,
			"error":        nil,
			"attempts":     gorm.Expr("attempts + 1"),
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark webhook event processed")
	}
	return nil
}

// MarkFailed stores the failure and leaves the event unprocessed so a
// redelivery runs it again.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, orderID *uuid.UUID, cause error) error {
	msg := truncateError(cause.Error(), maxStoredErrorLen)
	err := r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"order_id": orderID,
			"error":    msg,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark webhook event failed")
	}
	return nil
}

// truncateError cuts msg to at most limit bytes on a rune boundary; provider
// messages can carry non-ASCII text and Postgres rejects invalid UTF-8.
func truncateError(msg string, limit int) string {
	if len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
