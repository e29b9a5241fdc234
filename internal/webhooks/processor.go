// Package webhooks applies authenticated payment events to orders exactly
// once per event id.
package webhooks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	IgnoredUnhandledType = "unhandled_type"
	IgnoredOrderNotFound = "order_not_found"
)

// Envelope is a provider event after authentication and normalization.
// Type is empty for events that carry no payment outcome.
type Envelope struct {
	EventID          string
	Provider         enums.WebhookProvider
	SourceType       string
	Type             enums.PaymentEventType
	OrderReference   string
	PaymentReference string
	Payload          []byte
}

// Result reports what handling did.
type Result struct {
	Replay  bool       `json:"replay"`
	Ignored string     `json:"ignored,omitempty"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
}

type reservationEngine interface {
	Commit(ctx context.Context, orderID uuid.UUID) (bool, error)
	Release(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type confirmationNotifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
}

type labelCreator interface {
	CreateForOrder(ctx context.Context, order *models.Order)
}

type ProcessorParams struct {
	Events       *Repository
	Orders       orders.Repository
	Reservations reservationEngine
	Notifier     confirmationNotifier
	Labels       labelCreator
	Logger       *logger.Logger
	Metrics      *metrics.StorefrontMetrics
	Now          func() time.Time
}

// Processor dedupes events on their durable record and dispatches them.
type Processor struct {
	events       *Repository
	orders       orders.Repository
	reservations reservationEngine
	notifier     confirmationNotifier
	labels       labelCreator
	logg         *logger.Logger
	metrics      *metrics.StorefrontMetrics
	now          func() time.Time
}

func NewProcessor(params ProcessorParams) (*Processor, error) {
	if params.Events == nil {
		return nil, errors.New("webhook event repository required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders repository required")
	}
	if params.Reservations == nil {
		return nil, errors.New("reservation engine required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Processor{
		events:       params.Events,
		orders:       params.Orders,
		reservations: params.Reservations,
		notifier:     params.Notifier,
		labels:       params.Labels,
		logg:         params.Logger,
		metrics:      params.Metrics,
		now:          params.Now,
	}, nil
}

// Handle records the event before acting on it. An already processed event
// is a replay; a recorded but unprocessed one is run again.
func (p *Processor) Handle(ctx context.Context, env Envelope) (*Result, error) {
	if strings.TrimSpace(env.EventID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	provider := env.Provider.String()
	ctx = p.logg.WithEventID(ctx, env.EventID)

	record, err := p.events.FindByEventID(ctx, env.EventID)
	if err != nil {
		p.metrics.IncWebhook(provider, metrics.OutcomeError)
		return nil, err
	}
	if record != nil && record.Processed {
		p.metrics.IncWebhook(provider, metrics.OutcomeReplay)
		p.logg.Info(ctx, "webhook replay ignored")
		return &Result{Replay: true, OrderID: record.OrderID}, nil
	}
	if record == nil {
		record = &models.WebhookEvent{
			EventID:  env.EventID,
			Provider: env.Provider,
			Type:     eventTypeLabel(env),
			Payload:  payloadText(env.Payload),
		}
		if err := p.events.Create(ctx, record); err != nil {
			if errors.Is(err, ErrDuplicateEvent) {
				p.metrics.IncWebhook(provider, metrics.OutcomeReplay)
				return &Result{Replay: true}, nil
			}
			p.metrics.IncWebhook(provider, metrics.OutcomeError)
			return nil, err
		}
	}

	result, err := p.dispatch(ctx, env)
	if err != nil {
		if markErr := p.events.MarkFailed(ctx, record.ID, result.OrderID, err); markErr != nil {
			p.logg.Error(ctx, "webhook failure not recorded", markErr)
		}
		p.metrics.IncWebhook(provider, metrics.OutcomeError)
		p.logg.Error(ctx, "webhook processing failed", err)
		return nil, err
	}
	if err := p.events.MarkProcessed(ctx, record.ID, result.OrderID, p.now().UTC()); err != nil {
		p.metrics.IncWebhook(provider, metrics.OutcomeError)
		return nil, err
	}
	p.metrics.IncWebhook(provider, metrics.OutcomeSuccess)
	return result, nil
}

// dispatch always returns a non-nil result so the order id can be stored
// alongside a failure.
func (p *Processor) dispatch(ctx context.Context, env Envelope) (*Result, error) {
	result := &Result{}
	if env.Type == "" {
		result.Ignored = IgnoredUnhandledType
		return result, nil
	}

	order, err := p.resolveOrder(ctx, env)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			p.logg.Warn(p.logg.WithFields(ctx, map[string]any{
				"order_reference":   env.OrderReference,
				"payment_reference": env.PaymentReference,
			}), "webhook order not found")
			result.Ignored = IgnoredOrderNotFound
			return result, nil
		}
		return result, err
	}
	result.OrderID = &order.ID
	ctx = p.logg.WithOrderID(ctx, order.ID.String())

	switch env.Type {
	case enums.PaymentEventTypePaid:
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return result, nil
		}
		committed, err := p.reservations.Commit(ctx, order.ID)
		if err != nil {
			return result, err
		}
		if committed {
			p.afterPaid(ctx, order.ID)
		}
	case enums.PaymentEventTypeFailed, enums.PaymentEventTypeCancelled:
		if _, err := p.reservations.Release(ctx, order.ID); err != nil {
			return result, err
		}
	case enums.PaymentEventTypeRefunded:
		if _, err := p.orders.MarkRefunded(ctx, order.ID); err != nil {
			return result, err
		}
	}
	return result, nil
}

// afterPaid runs the best-effort side effects of a payment.
func (p *Processor) afterPaid(ctx context.Context, orderID uuid.UUID) {
	if p.notifier == nil && p.labels == nil {
		return
	}
	paid, err := p.orders.FindByID(ctx, orderID)
	if err != nil {
		p.logg.Error(ctx, "paid order reload failed", err)
		return
	}
	if p.notifier != nil {
		p.notifier.OrderConfirmed(ctx, paid)
	}
	if p.labels != nil {
		p.labels.CreateForOrder(ctx, paid)
	}
}

// resolveOrder finds the order by the reference checkout handed to the
// provider, falling back to the provider's payment reference.
func (p *Processor) resolveOrder(ctx context.Context, env Envelope) (*models.Order, error) {
	if ref := strings.TrimSpace(env.OrderReference); ref != "" {
		var (
			order *models.Order
			err   error
		)
		if id, parseErr := uuid.Parse(ref); parseErr == nil {
			order, err = p.orders.FindByID(ctx, id)
		} else {
			order, err = p.orders.FindByNumber(ctx, ref)
		}
		if err == nil || !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return order, err
		}
	}
	return p.orders.FindByPaymentReference(ctx, env.PaymentReference)
}

func eventTypeLabel(env Envelope) string {
	if env.Type != "" {
		return env.Type.String()
	}
	if env.SourceType != "" {
		return env.SourceType
	}
	return "unknown"
}

func payloadText(payload []byte) string {
	if len(payload) == 0 {
		return "{}"
	}
	return string(payload)
}
