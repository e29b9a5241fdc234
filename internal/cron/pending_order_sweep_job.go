package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultPendingOrderTTL = 2 * time.Hour
	defaultSweepBatchSize  = 100
)

// PendingOrderSweepJobParams configure the stale pending order sweep.
type PendingOrderSweepJobParams struct {
	Logger    *logger.Logger
	Orders    stalePendingReader
	Canceller orderCanceller
	TTL       time.Duration
	BatchSize int
}

type stalePendingReader interface {
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderCanceller interface {
	Cancel(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// NewPendingOrderSweepJob builds the job that returns stock held by orders
// whose payment never settled.
func NewPendingOrderSweepJob(params PendingOrderSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Canceller == nil {
		return nil, fmt.Errorf("order canceller required")
	}
	if params.TTL <= 0 {
		params.TTL = defaultPendingOrderTTL
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultSweepBatchSize
	}
	return &pendingOrderSweepJob{
		logg:      params.Logger,
		orders:    params.Orders,
		canceller: params.Canceller,
		ttl:       params.TTL,
		batchSize: params.BatchSize,
		now:       time.Now,
	}, nil
}

type pendingOrderSweepJob struct {
	logg      *logger.Logger
	orders    stalePendingReader
	canceller orderCanceller
	ttl       time.Duration
	batchSize int
	now       func() time.Time
}

func (j *pendingOrderSweepJob) Name() string { return "pending-order-sweep" }

// Run cancels stale orders batch by batch. A batch with failures ends the
// run so a persistently failing order is not retried in a tight loop.
func (j *pendingOrderSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	cancelled := 0
	var errs error
	for {
		batch, err := j.orders.ListStalePending(ctx, cutoff, j.batchSize)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("query stale pending orders: %w", err))
		}
		for _, order := range batch {
			applied, err := j.canceller.Cancel(ctx, order.ID)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
				continue
			}
			if applied {
				cancelled++
			}
		}
		if errs != nil || len(batch) < j.batchSize || ctx.Err() != nil {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cancelled": cancelled,
		"cutoff":    cutoff,
	})
	j.logg.Info(logCtx, "pending order sweep complete")
	return errs
}
