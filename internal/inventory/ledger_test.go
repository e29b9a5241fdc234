package inventory

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func delivery(qty int, cost string, position int64, date *time.Time) models.InventoryDelivery {
	unit := decimal.RequireFromString(cost)
	return models.InventoryDelivery{
		ID:           uuid.New(),
		Quantity:     qty,
		CostPerUnit:  unit,
		TotalCost:    unit.Mul(decimal.NewFromInt(int64(qty))),
		Position:     position,
		DeliveryDate: date,
	}
}

func TestSortFIFOUndatedLast(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 1, 0)

	deliveries := []models.InventoryDelivery{
		delivery(1, "1", 1, nil),
		delivery(1, "1", 2, &late),
		delivery(1, "1", 3, &early),
		delivery(1, "1", 4, nil),
	}
	SortFIFO(deliveries)

	positions := make([]int64, 0, len(deliveries))
	for _, d := range deliveries {
		positions = append(positions, d.Position)
	}
	assert.Equal(t, []int64{3, 2, 1, 4}, positions)
}

func TestConsumeDrainsHeadAndRepricesPartial(t *testing.T) {
	d1 := delivery(5, "2.00", 1, nil)
	d2 := delivery(5, "3.00", 2, nil)
	ledger := NewLedger(models.Product{ID: uuid.New()}, []models.InventoryDelivery{d1, d2})
	require.Equal(t, 10, ledger.Product.Stock)

	result := ledger.Consume(7)

	assert.Equal(t, 7, result.Consumed)
	assert.Zero(t, result.Shortfall)
	assert.True(t, decimal.RequireFromString("16").Equal(result.CostOfGoods), result.CostOfGoods.String())
	require.Len(t, ledger.Deliveries, 1)
	assert.Equal(t, d2.ID, ledger.Deliveries[0].ID)
	assert.Equal(t, 3, ledger.Deliveries[0].Quantity)
	assert.True(t, decimal.RequireFromString("9").Equal(ledger.Deliveries[0].TotalCost))
	assert.Equal(t, 3, ledger.Product.Stock)
	assert.Equal(t, []uuid.UUID{d1.ID}, ledger.removed)
}

func TestConsumeBeyondStockClampsAtZero(t *testing.T) {
	ledger := NewLedger(models.Product{ID: uuid.New()}, []models.InventoryDelivery{delivery(2, "1", 1, nil)})

	result := ledger.Consume(5)

	assert.Equal(t, 2, result.Consumed)
	assert.Equal(t, 3, result.Shortfall)
	assert.Empty(t, ledger.Deliveries)
	assert.Zero(t, ledger.Product.Stock)
}

func TestDeallocateClampsAtZero(t *testing.T) {
	ledger := NewLedger(models.Product{ID: uuid.New(), AllocatedStock: 2}, nil)

	given := ledger.Deallocate(5)

	assert.Equal(t, 2, given)
	assert.Zero(t, ledger.Product.AllocatedStock)
}

func TestReceiveAssignsNextPositionAndCost(t *testing.T) {
	ledger := NewLedger(models.Product{ID: uuid.New()}, []models.InventoryDelivery{delivery(4, "1.50", 7, nil)})

	ledger.Receive(models.InventoryDelivery{Quantity: 6, CostPerUnit: decimal.RequireFromString("2.50")})

	require.Len(t, ledger.Deliveries, 2)
	received := ledger.Deliveries[1]
	assert.Equal(t, int64(8), received.Position)
	assert.Equal(t, ledger.Product.ID, received.ProductID)
	assert.True(t, decimal.RequireFromString("15").Equal(received.TotalCost))
	assert.Equal(t, 10, ledger.Product.Stock)
	assert.True(t, decimal.RequireFromString("2.1").Equal(ledger.AverageCost()), ledger.AverageCost().String())
}

func TestAllocateRejectsNonPositiveAndOverflow(t *testing.T) {
	ledger := NewLedger(models.Product{ID: uuid.New(), AllocatedStock: 3}, nil)

	assert.Error(t, ledger.Allocate(0))
	assert.Error(t, ledger.Allocate(-2))
	assert.Error(t, ledger.Allocate(math.MaxInt))
	assert.Equal(t, 3, ledger.Product.AllocatedStock)

	assert.NoError(t, ledger.Allocate(2))
	assert.Equal(t, 5, ledger.Product.AllocatedStock)
}
