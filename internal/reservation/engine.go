// Package reservation moves order quantities through the inventory ledger:
// allocate at checkout, then exactly one of commit or release.
package reservation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const ReasonInsufficient = "insufficient_availability"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Engine applies reservation transitions. Every operation runs in its own
// transaction and reports whether it changed anything.
type Engine struct {
	tx        txRunner
	orders    orders.Repository
	inventory *inventory.Repository
	logg      *logger.Logger
	now       func() time.Time
}

type EngineParams struct {
	Tx        txRunner
	Orders    orders.Repository
	Inventory *inventory.Repository
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewEngine(params EngineParams) (*Engine, error) {
	if params.Tx == nil {
		return nil, errors.New("tx runner required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders repository required")
	}
	if params.Inventory == nil {
		return nil, errors.New("inventory repository required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Engine{
		tx:        params.Tx,
		orders:    params.Orders,
		inventory: params.Inventory,
		logg:      params.Logger,
		now:       params.Now,
	}, nil
}

// Allocate promises the order's quantities against available stock. It is
// all-or-nothing: any short product aborts the whole transaction. Settled
// orders are left alone.
func (e *Engine) Allocate(ctx context.Context, orderID uuid.UUID) (bool, error) {
	applied := false
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := e.orders.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Settled() {
			return nil
		}

		repo := e.inventory.WithTx(tx)
		lines := quantities(order.Items)
		for _, line := range lines {
			if line.quantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "order line quantity must be positive").
					WithDetails(map[string]any{"product_id": line.productID.String(), "quantity": line.quantity})
			}
		}
		for _, line := range lines {
			ledger, err := repo.LoadLedger(ctx, line.productID)
			if err != nil {
				return err
			}
			if available := ledger.Available(); available < line.quantity {
				return pkgerrors.Conflict(ReasonInsufficient, "insufficient availability", map[string]any{
					"product_id": line.productID.String(),
					"available":  max(available, 0),
					"requested":  line.quantity,
				})
			}
			if err := ledger.Allocate(line.quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid allocation")
			}
			if err := repo.SaveLedger(ctx, ledger); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	return applied, err
}

// Commit converts the order's allocation into consumed stock. The flag
// compare-and-set makes a second commit a no-op.
func (e *Engine) Commit(ctx context.Context, orderID uuid.UUID) (bool, error) {
	applied := false
	cogs := decimal.Zero
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := e.orders.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.InventoryCommitted {
			return nil
		}
		wasReleased := order.AllocationReleased

		now := e.now().UTC()
		res := tx.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ? AND inventory_committed = ?", orderID, false).
			Updates(map[string]any{
				"inventory_committed": true,
				"allocation_released": false,
				"status":              enums.OrderStatusPaid,
				"payment_status":      enums.PaymentStatusPaid,
				"paid_at":             now,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "commit order flags")
		}
		if res.RowsAffected == 0 {
			return nil
		}

		repo := e.inventory.WithTx(tx)
		for _, line := range quantities(order.Items) {
			ledger, err := repo.LoadLedger(ctx, line.productID)
			if err != nil {
				return err
			}
			// A released order no longer holds an allocation to convert.
			if !wasReleased {
				ledger.Deallocate(line.quantity)
			}
			result := ledger.Consume(line.quantity)
			cogs = cogs.Add(result.CostOfGoods)
			if result.Shortfall > 0 {
				e.logg.Warn(e.logg.WithFields(ctx, map[string]any{
					"order_id":   orderID.String(),
					"product_id": line.productID.String(),
					"shortfall":  result.Shortfall,
				}), "ledger shortfall on commit")
			}
			if err := repo.SaveLedger(ctx, ledger); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		e.logg.Info(e.logg.WithFields(ctx, map[string]any{
			"order_id":      orderID.String(),
			"cost_of_goods": cogs.StringFixed(4),
		}), "order inventory committed")
	}
	return applied, nil
}

// Release gives an unpaid order's allocation back and marks it failed.
func (e *Engine) Release(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return e.release(ctx, orderID, enums.OrderStatusFailed)
}

// Cancel is Release for orders abandoned without a payment outcome.
func (e *Engine) Cancel(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return e.release(ctx, orderID, enums.OrderStatusCancelled)
}

func (e *Engine) release(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (bool, error) {
	applied := false
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := e.orders.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Settled() {
			return nil
		}

		res := tx.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ? AND inventory_committed = ? AND allocation_released = ?", orderID, false, false).
			Updates(map[string]any{
				"allocation_released": true,
				"status":              status,
				"payment_status":      enums.PaymentStatusFailed,
				"released_at":         e.now().UTC(),
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "release order flags")
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := e.giveBack(ctx, tx, order.Items); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		e.logg.Info(e.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"status":   status.String(),
		}), "order allocation released")
	}
	return applied, nil
}

// Compensate returns the quantities of an order whose allocation succeeded
// but whose checkout is being rolled back. Flags are untouched since the
// order is about to be deleted.
func (e *Engine) Compensate(ctx context.Context, orderID uuid.UUID) error {
	return e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := e.orders.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Settled() {
			return nil
		}
		return e.giveBack(ctx, tx, order.Items)
	})
}

func (e *Engine) giveBack(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	repo := e.inventory.WithTx(tx)
	for _, line := range quantities(items) {
		ledger, err := repo.LoadLedger(ctx, line.productID)
		if err != nil {
			return err
		}
		if given := ledger.Deallocate(line.quantity); given < line.quantity {
			e.logg.Warn(e.logg.WithFields(ctx, map[string]any{
				"product_id": line.productID.String(),
				"requested":  line.quantity,
				"returned":   given,
			}), "allocation clamped at zero")
		}
		if err := repo.SaveLedger(ctx, ledger); err != nil {
			return err
		}
	}
	return nil
}

type productQuantity struct {
	productID uuid.UUID
	quantity  int
}

// quantities sums items per product and orders them by product id so every
// transaction touches product rows in the same order.
func quantities(items []models.OrderItem) []productQuantity {
	totals := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		totals[item.ProductID] += item.Quantity
	}
	out := make([]productQuantity, 0, len(totals))
	for id, qty := range totals {
		out = append(out, productQuantity{productID: id, quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].productID.String() < out[j].productID.String()
	})
	return out
}
