package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/payments"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AttachPaymentSession(ctx context.Context, id uuid.UUID, session *payments.Session) error
	MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error)
	SetFulfillment(ctx context.Context, id uuid.UUID, update FulfillmentUpdate) error
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}

// FulfillmentUpdate carries label data written after payment.
type FulfillmentUpdate struct {
	Status         enums.FulfillmentStatus
	TrackingNumber string
	LabelURL       string
}

// ListFilters narrows the admin order listing.
type ListFilters struct {
	Status        *enums.OrderStatus
	CustomerEmail string
}
