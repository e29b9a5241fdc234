package webhooks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/reservation"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type recordingNotifier struct {
	mu     sync.Mutex
	orders []uuid.UUID
}

func (r *recordingNotifier) OrderConfirmed(_ context.Context, order *models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order.ID)
}

type recordingLabels struct {
	orders []uuid.UUID
}

func (r *recordingLabels) CreateForOrder(_ context.Context, order *models.Order) {
	r.orders = append(r.orders, order.ID)
}

type flakyEngine struct {
	inner    reservationEngine
	failures int
}

func (f *flakyEngine) Commit(ctx context.Context, id uuid.UUID) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, pkgerrors.New(pkgerrors.CodeInternal, "database unavailable")
	}
	return f.inner.Commit(ctx, id)
}

func (f *flakyEngine) Release(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.inner.Release(ctx, id)
}

type fixture struct {
	client    *db.Client
	engine    *reservation.Engine
	processor *Processor
	notifier  *recordingNotifier
	labels    *recordingLabels
}

func newFixture(t *testing.T, wrap func(reservationEngine) reservationEngine) *fixture {
	t.Helper()
	client := dbtest.New(t)
	ordersRepo := orders.NewRepository(client.DB())
	engine, err := reservation.NewEngine(reservation.EngineParams{
		Tx:        client,
		Orders:    ordersRepo,
		Inventory: inventory.NewRepository(client.DB()),
	})
	require.NoError(t, err)

	var reservations reservationEngine = engine
	if wrap != nil {
		reservations = wrap(engine)
	}
	f := &fixture{client: client, engine: engine, notifier: &recordingNotifier{}, labels: &recordingLabels{}}
	f.processor, err = NewProcessor(ProcessorParams{
		Events:       NewRepository(client.DB()),
		Orders:       ordersRepo,
		Reservations: reservations,
		Notifier:     f.notifier,
		Labels:       f.labels,
	})
	require.NoError(t, err)
	return f
}

// allocatedOrder seeds a product with stock and a pending order holding qty.
func (f *fixture) allocatedOrder(t *testing.T, stock, qty int) (models.Product, models.Order) {
	t.Helper()
	product := dbtest.SeedProduct(t, f.client, "SKU-"+uuid.NewString()[:6], 1000, stock)
	order := dbtest.SeedOrder(t, f.client, dbtest.Line{Product: product, Quantity: qty})
	_, err := f.engine.Allocate(context.Background(), order.ID)
	require.NoError(t, err)
	return product, order
}

func (f *fixture) event(t *testing.T, eventID string) models.WebhookEvent {
	t.Helper()
	var event models.WebhookEvent
	require.NoError(t, f.client.DB().Where("event_id = ?", eventID).First(&event).Error)
	return event
}

func TestPaidEventCommitsOnceAndReplays(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	product, order := f.allocatedOrder(t, 10, 3)
	env := Envelope{
		EventID:        "evt-paid-1",
		Provider:       enums.WebhookProviderGeneric,
		Type:           enums.PaymentEventTypePaid,
		OrderReference: order.ID.String(),
		Payload:        []byte(`{"id":"evt-paid-1"}`),
	}

	first, err := f.processor.Handle(ctx, env)
	require.NoError(t, err)
	assert.False(t, first.Replay)
	require.NotNil(t, first.OrderID)
	assert.Equal(t, order.ID, *first.OrderID)

	second, err := f.processor.Handle(ctx, env)
	require.NoError(t, err)
	assert.True(t, second.Replay)

	saved := dbtest.ReloadOrder(t, f.client, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, saved.Status)
	assert.Equal(t, enums.PaymentStatusPaid, saved.PaymentStatus)
	assert.True(t, saved.InventoryCommitted)

	after := dbtest.ReloadProduct(t, f.client, product.ID)
	assert.Equal(t, 7, after.Stock)
	assert.Zero(t, after.AllocatedStock)

	assert.Equal(t, []uuid.UUID{order.ID}, f.notifier.orders)
	assert.Equal(t, []uuid.UUID{order.ID}, f.labels.orders)

	record := f.event(t, "evt-paid-1")
	assert.True(t, record.Processed)
	assert.Equal(t, 1, record.Attempts)
}

func TestFailedEventReleasesAllocation(t *testing.T) {
	f := newFixture(t, nil)
	product, order := f.allocatedOrder(t, 5, 2)

	_, err := f.processor.Handle(context.Background(), Envelope{
		EventID:        "evt-failed-1",
		Provider:       enums.WebhookProviderGeneric,
		Type:           enums.PaymentEventTypeFailed,
		OrderReference: order.OrderNumber,
	})
	require.NoError(t, err)

	saved := dbtest.ReloadOrder(t, f.client, order.ID)
	assert.Equal(t, enums.OrderStatusFailed, saved.Status)
	assert.True(t, saved.AllocationReleased)
	assert.False(t, saved.InventoryCommitted)

	after := dbtest.ReloadProduct(t, f.client, product.ID)
	assert.Equal(t, 5, after.Stock)
	assert.Zero(t, after.AllocatedStock)
	assert.Empty(t, f.notifier.orders)
}

func TestPaidAfterReleaseDoesNotRestoreAllocation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	product, order := f.allocatedOrder(t, 5, 2)

	_, err := f.processor.Handle(ctx, Envelope{EventID: "evt-a", Provider: enums.WebhookProviderGeneric, Type: enums.PaymentEventTypeCancelled, OrderReference: order.ID.String()})
	require.NoError(t, err)
	_, err = f.processor.Handle(ctx, Envelope{EventID: "evt-b", Provider: enums.WebhookProviderGeneric, Type: enums.PaymentEventTypePaid, OrderReference: order.ID.String()})
	require.NoError(t, err)

	saved := dbtest.ReloadOrder(t, f.client, order.ID)
	assert.True(t, saved.InventoryCommitted)
	assert.False(t, saved.AllocationReleased)
	after := dbtest.ReloadProduct(t, f.client, product.ID)
	assert.Equal(t, 3, after.Stock)
	assert.Zero(t, after.AllocatedStock)
}

func TestFailureIsRecordedAndRetried(t *testing.T) {
	f := newFixture(t, func(inner reservationEngine) reservationEngine {
		return &flakyEngine{inner: inner, failures: 1}
	})
	ctx := context.Background()
	_, order := f.allocatedOrder(t, 5, 1)
	env := Envelope{EventID: "evt-retry", Provider: enums.WebhookProviderSquare, Type: enums.PaymentEventTypePaid, OrderReference: order.ID.String()}

	_, err := f.processor.Handle(ctx, env)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	record := f.event(t, "evt-retry")
	assert.False(t, record.Processed)
	assert.Equal(t, 1, record.Attempts)
	require.NotNil(t, record.Error)
	assert.Contains(t, *record.Error, "database unavailable")
	assert.False(t, dbtest.ReloadOrder(t, f.client, order.ID).InventoryCommitted)

	result, err := f.processor.Handle(ctx, env)
	require.NoError(t, err)
	assert.False(t, result.Replay)

	record = f.event(t, "evt-retry")
	assert.True(t, record.Processed)
	assert.Nil(t, record.Error)
	assert.Equal(t, 2, record.Attempts)
	assert.True(t, dbtest.ReloadOrder(t, f.client, order.ID).InventoryCommitted)
}

func TestRefundByPaymentReference(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, order := f.allocatedOrder(t, 5, 1)
	require.NoError(t, f.client.DB().Model(&models.Order{}).Where("id = ?", order.ID).Update("payment_reference", "pay_9").Error)

	_, err := f.processor.Handle(ctx, Envelope{EventID: "evt-refund", Provider: enums.WebhookProviderSquare, Type: enums.PaymentEventTypeRefunded, PaymentReference: "pay_9"})
	require.NoError(t, err)

	saved := dbtest.ReloadOrder(t, f.client, order.ID)
	assert.Equal(t, enums.OrderStatusRefunded, saved.Status)
	assert.Equal(t, enums.PaymentStatusRefunded, saved.PaymentStatus)
}

func TestUnknownTypeAndMissingOrderAreAcknowledged(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	result, err := f.processor.Handle(ctx, Envelope{EventID: "evt-x", Provider: enums.WebhookProviderSquare, SourceType: "payment.created"})
	require.NoError(t, err)
	assert.Equal(t, IgnoredUnhandledType, result.Ignored)
	assert.Equal(t, "payment.created", f.event(t, "evt-x").Type)

	result, err = f.processor.Handle(ctx, Envelope{EventID: "evt-y", Provider: enums.WebhookProviderGeneric, Type: enums.PaymentEventTypePaid, OrderReference: uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, IgnoredOrderNotFound, result.Ignored)
	assert.True(t, f.event(t, "evt-y").Processed)
}

func TestHandleRequiresEventID(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.processor.Handle(context.Background(), Envelope{Type: enums.PaymentEventTypePaid})

	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDuplicateInsertIsReplay(t *testing.T) {
	f := newFixture(t, nil)
	repo := NewRepository(f.client.DB())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.WebhookEvent{EventID: "evt-dup", Provider: enums.WebhookProviderGeneric, Type: "x", Payload: "{}"}))
	err := repo.Create(ctx, &models.WebhookEvent{EventID: "evt-dup", Provider: enums.WebhookProviderGeneric, Type: "x", Payload: "{}"})

	assert.True(t, errors.Is(err, ErrDuplicateEvent))
}
