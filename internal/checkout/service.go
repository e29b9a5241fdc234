package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/internal/locks"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/payments"
	"github.com/angelmondragon/storefront-backend/pkg/shipping"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lockManager interface {
	Acquire(ctx context.Context, productIDs []uuid.UUID) (*locks.LockSet, error)
	Release(ctx context.Context, set *locks.LockSet)
}

type productReader interface {
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type reservationEngine interface {
	Allocate(ctx context.Context, orderID uuid.UUID) (bool, error)
	Commit(ctx context.Context, orderID uuid.UUID) (bool, error)
	Compensate(ctx context.Context, orderID uuid.UUID) error
}

type quoteProvider interface {
	Quote(ctx context.Context, postalCode string) ([]shipping.Option, error)
}

type confirmationNotifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
}

// ServiceParams wires the checkout collaborators. Gateway, Quotes and
// Notifier are optional.
type ServiceParams struct {
	Tx           txRunner
	Locks        lockManager
	Products     productReader
	Orders       orders.Repository
	Reservations reservationEngine
	Gateway      payments.Gateway
	Quotes       quoteProvider
	Notifier     confirmationNotifier
	Config       config.CheckoutConfig
	Logger       *logger.Logger
	Metrics      *metrics.StorefrontMetrics
	Now          func() time.Time
}

// Service executes checkout orchestration.
type Service struct {
	tx           txRunner
	locks        lockManager
	products     productReader
	orders       orders.Repository
	reservations reservationEngine
	gateway      payments.Gateway
	quotes       quoteProvider
	notifier     confirmationNotifier
	cfg          config.CheckoutConfig
	currency     enums.Currency
	logg         *logger.Logger
	metrics      *metrics.StorefrontMetrics
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Tx == nil {
		return nil, errors.New("tx runner required")
	}
	if params.Locks == nil {
		return nil, errors.New("lock manager required")
	}
	if params.Products == nil {
		return nil, errors.New("product reader required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders repository required")
	}
	if params.Reservations == nil {
		return nil, errors.New("reservation engine required")
	}
	currency, err := enums.ParseCurrency(strings.ToUpper(strings.TrimSpace(params.Config.Currency)))
	if err != nil {
		return nil, err
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		tx:           params.Tx,
		locks:        params.Locks,
		products:     params.Products,
		orders:       params.Orders,
		reservations: params.Reservations,
		gateway:      params.Gateway,
		quotes:       params.Quotes,
		notifier:     params.Notifier,
		cfg:          params.Config,
		currency:     currency,
		logg:         params.Logger,
		metrics:      params.Metrics,
		now:          params.Now,
	}, nil
}

// Checkout validates the cart, prices it on the server, creates the order,
// allocates stock and starts payment. Product locks are held from pricing
// until the order is allocated and the payment session exists.
func (s *Service) Checkout(ctx context.Context, req Request) (*Confirmation, error) {
	started := s.now()
	confirmation, err := s.checkout(ctx, req)
	s.metrics.ObserveCheckout(outcome(err), s.now().Sub(started))
	return confirmation, err
}

func (s *Service) checkout(ctx context.Context, req Request) (*Confirmation, error) {
	if !req.Mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout mode").
			WithDetails(map[string]any{"mode": req.Mode})
	}
	contact, err := helpers.ValidateContact(req.Contact)
	if err != nil {
		return nil, err
	}
	address, err := helpers.ResolveAddress(req.Mode, req.ShippingAddress)
	if err != nil {
		return nil, err
	}

	requested := make([]helpers.Line, 0, len(req.Items))
	for _, item := range req.Items {
		requested = append(requested, helpers.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	lines, err := helpers.NormalizeLines(requested, s.cfg.MaxQuantityPerLine)
	if err != nil {
		return nil, err
	}

	set, err := s.locks.Acquire(ctx, helpers.ProductIDs(lines))
	if err != nil {
		return nil, err
	}
	defer s.locks.Release(ctx, set)

	scope := newRequestScope(s.products)
	missing, err := scope.activeProducts(ctx, helpers.ProductIDs(lines))
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, unavailable(missing)
	}

	priced, subtotal, err := priceLines(scope, lines, s.currency)
	if err != nil {
		return nil, err
	}
	shippingCents, shippingOption := s.shippingCharge(ctx, subtotal, req.Mode, address.PostalCode, strings.TrimSpace(req.ShippingOptionID))
	var discount int64
	total := subtotal + shippingCents - discount

	order := &models.Order{
		OrderNumber:       orders.NewOrderNumber(s.now()),
		CustomerEmail:     contact.Email,
		CustomerName:      contact.Name,
		CustomerPhone:     contact.Phone,
		ShippingAddress:   address,
		CheckoutMode:      req.Mode,
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusPending,
		SubtotalCents:     subtotal,
		ShippingCents:     shippingCents,
		DiscountCents:     discount,
		TotalCents:        total,
		Currency:          s.currency,
		ShippingOptionID:  shippingOption,
		FulfillmentStatus: enums.FulfillmentStatusUnfulfilled,
		Items:             make([]models.OrderItem, 0, len(priced)),
	}
	for _, line := range priced {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      line.product.ID,
			Title:          line.product.Title,
			SKU:            line.product.SKU,
			UnitPriceCents: line.unitCents,
			Quantity:       line.quantity,
			LineTotalCents: line.lineCents,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orders.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	allocated, err := s.reservations.Allocate(ctx, order.ID)
	if err != nil {
		s.rollback(ctx, order.ID, false)
		return nil, err
	}

	confirmation := newConfirmation(order)
	switch {
	case s.gateway != nil:
		session, err := s.gateway.CreatePaymentSession(ctx, payments.SessionRequest{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			AmountCents:   order.TotalCents,
			Currency:      order.Currency,
			Mode:          order.CheckoutMode,
			SourceToken:   strings.TrimSpace(req.SourceToken),
			CustomerEmail: order.CustomerEmail,
		})
		if err != nil {
			s.rollback(ctx, order.ID, allocated)
			return nil, err
		}
		if err := s.orders.AttachPaymentSession(ctx, order.ID, session); err != nil {
			s.rollback(ctx, order.ID, allocated)
			return nil, err
		}
		confirmation.Payment = &Payment{
			Provider:     session.Provider,
			Reference:    session.Reference,
			ClientSecret: session.ClientSecret,
			RedirectURL:  session.RedirectURL,
			Status:       session.Status,
		}
	case s.cfg.AutoCapture:
		if _, err := s.reservations.Commit(ctx, order.ID); err != nil {
			s.rollback(ctx, order.ID, allocated)
			return nil, err
		}
		paid, err := s.orders.FindByID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		confirmation = newConfirmation(paid)
		if s.notifier != nil {
			s.notifier.OrderConfirmed(ctx, paid)
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_number": order.OrderNumber,
		"total_cents":  order.TotalCents,
		"lines":        len(order.Items),
	}), "checkout completed")
	return confirmation, nil
}

// rollback undoes a checkout after the order row exists. It never fails the
// caller: an order whose allocation could not be returned is left pending
// for the stale order sweep.
func (s *Service) rollback(ctx context.Context, orderID uuid.UUID, allocated bool) {
	ctx = context.WithoutCancel(ctx)
	s.metrics.IncRollback()

	if allocated {
		if err := s.reservations.Compensate(ctx, orderID); err != nil {
			s.logg.Error(ctx, "checkout rollback: allocation not returned, leaving order for sweep", err)
			return
		}
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orders.WithTx(tx).Delete(ctx, orderID)
	})
	if err != nil {
		s.logg.Error(ctx, "checkout rollback: order not deleted", err)
		return
	}
	s.logg.Warn(ctx, "checkout rolled back")
}

func newConfirmation(order *models.Order) *Confirmation {
	return &Confirmation{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		SubtotalCents: order.SubtotalCents,
		ShippingCents: order.ShippingCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
		Currency:      order.Currency,
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
		return metrics.OutcomeConflict
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
