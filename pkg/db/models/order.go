package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is a customer purchase. InventoryCommitted and AllocationReleased are
// mutually exclusive terminal flags guarding every ledger mutation.
type Order struct {
	ID                  uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber         string                  `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	CustomerEmail       string                  `gorm:"column:customer_email;not null;index:ix_orders_customer_email"`
	CustomerName        string                  `gorm:"column:customer_name;not null;default:''"`
	CustomerPhone       *string                 `gorm:"column:customer_phone"`
	ShippingAddress     types.Address           `gorm:"column:shipping_address;type:jsonb;not null"`
	CheckoutMode        enums.CheckoutMode      `gorm:"column:checkout_mode;type:text;not null"`
	Status              enums.OrderStatus       `gorm:"column:status;type:text;not null;index:ix_orders_status_created"`
	PaymentStatus       enums.PaymentStatus     `gorm:"column:payment_status;type:text;not null"`
	SubtotalCents       int64                   `gorm:"column:subtotal_cents;not null"`
	ShippingCents       int64                   `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents       int64                   `gorm:"column:discount_cents;not null;default:0"`
	TotalCents          int64                   `gorm:"column:total_cents;not null"`
	Currency            enums.Currency          `gorm:"column:currency;type:text;not null"`
	ShippingOptionID    *string                 `gorm:"column:shipping_option_id"`
	PaymentProvider     *string                 `gorm:"column:payment_provider"`
	PaymentReference    *string                 `gorm:"column:payment_reference;index:ix_orders_payment_reference"`
	PaymentClientSecret *string                 `gorm:"column:payment_client_secret"`
	PaymentRedirectURL  *string                 `gorm:"column:payment_redirect_url"`
	InventoryCommitted  bool                    `gorm:"column:inventory_committed;not null"`
	AllocationReleased  bool                    `gorm:"column:allocation_released;not null"`
	FulfillmentStatus   enums.FulfillmentStatus `gorm:"column:fulfillment_status;type:text;not null"`
	TrackingNumber      *string                 `gorm:"column:tracking_number"`
	LabelURL            *string                 `gorm:"column:label_url"`
	PaidAt              *time.Time              `gorm:"column:paid_at"`
	ReleasedAt          *time.Time              `gorm:"column:released_at"`
	Items               []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime;index:ix_orders_status_created"`
	UpdatedAt           time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Settled reports whether either terminal ledger flag is set.
func (o Order) Settled() bool {
	return o.InventoryCommitted || o.AllocationReleased
}
