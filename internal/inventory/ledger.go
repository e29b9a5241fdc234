package inventory

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Ledger is the whole inventory record of one product: its counters and the
// FIFO delivery queue. It is loaded, mutated in memory, then saved as a unit.
type Ledger struct {
	Product    models.Product
	Deliveries []models.InventoryDelivery

	removed []uuid.UUID
}

// ConsumeResult describes one FIFO consumption.
type ConsumeResult struct {
	Consumed    int
	Shortfall   int
	CostOfGoods decimal.Decimal
}

// NewLedger sorts deliveries into FIFO order.
func NewLedger(product models.Product, deliveries []models.InventoryDelivery) *Ledger {
	l := &Ledger{Product: product, Deliveries: append([]models.InventoryDelivery(nil), deliveries...)}
	SortFIFO(l.Deliveries)
	l.recompute()
	return l
}

// SortFIFO orders deliveries oldest first. Undated deliveries go last and
// ties fall back to insertion position.
func SortFIFO(deliveries []models.InventoryDelivery) {
	sort.SliceStable(deliveries, func(i, j int) bool {
		a, b := deliveries[i], deliveries[j]
		switch {
		case a.DeliveryDate == nil && b.DeliveryDate == nil:
		case a.DeliveryDate == nil:
			return false
		case b.DeliveryDate == nil:
			return true
		case !a.DeliveryDate.Equal(*b.DeliveryDate):
			return a.DeliveryDate.Before(*b.DeliveryDate)
		}
		return a.Position < b.Position
	})
}

// Stock is the sum of remaining delivery quantities.
func (l *Ledger) Stock() int {
	total := 0
	for _, d := range l.Deliveries {
		total += d.Quantity
	}
	return total
}

func (l *Ledger) Available() int {
	return l.Product.Stock - l.Product.AllocatedStock
}

func (l *Ledger) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, d := range l.Deliveries {
		total = total.Add(d.TotalCost)
	}
	return total
}

// AverageCost is total cost over stock, zero when nothing is on hand.
func (l *Ledger) AverageCost() decimal.Decimal {
	stock := l.Stock()
	if stock == 0 {
		return decimal.Zero
	}
	return l.TotalCost().Div(decimal.NewFromInt(int64(stock))).Round(4)
}

// Allocate promises qty units to a pending order. qty must be positive and
// must not overflow the counter.
func (l *Ledger) Allocate(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("allocate %d units of product %s: quantity must be positive", qty, l.Product.ID)
	}
	if l.Product.AllocatedStock > math.MaxInt-qty {
		return fmt.Errorf("allocate %d units of product %s: allocated stock overflow", qty, l.Product.ID)
	}
	l.Product.AllocatedStock += qty
	return nil
}

// Deallocate gives back qty units, clamping at zero. It returns how many
// units were actually given back.
func (l *Ledger) Deallocate(qty int) int {
	if qty > l.Product.AllocatedStock {
		qty = l.Product.AllocatedStock
	}
	if qty < 0 {
		qty = 0
	}
	l.Product.AllocatedStock -= qty
	return qty
}

// Consume removes qty units from the front of the queue. Fully drained
// deliveries are dropped and the partially consumed head is repriced.
func (l *Ledger) Consume(qty int) ConsumeResult {
	result := ConsumeResult{CostOfGoods: decimal.Zero}
	remaining := qty
	kept := l.Deliveries[:0]
	for _, d := range l.Deliveries {
		if remaining == 0 {
			kept = append(kept, d)
			continue
		}
		take := d.Quantity
		if take > remaining {
			take = remaining
		}
		remaining -= take
		result.Consumed += take
		result.CostOfGoods = result.CostOfGoods.Add(d.CostPerUnit.Mul(decimal.NewFromInt(int64(take))))

		d.Quantity -= take
		if d.Quantity == 0 {
			if d.ID != uuid.Nil {
				l.removed = append(l.removed, d.ID)
			}
			continue
		}
		d.TotalCost = d.CostPerUnit.Mul(decimal.NewFromInt(int64(d.Quantity)))
		kept = append(kept, d)
	}
	l.Deliveries = kept
	result.Shortfall = remaining
	l.recompute()
	return result
}

// Receive appends a delivery at the back of the insertion order.
func (l *Ledger) Receive(d models.InventoryDelivery) {
	var next int64 = 1
	for _, existing := range l.Deliveries {
		if existing.Position >= next {
			next = existing.Position + 1
		}
	}
	d.ProductID = l.Product.ID
	d.Position = next
	d.TotalCost = d.CostPerUnit.Mul(decimal.NewFromInt(int64(d.Quantity)))
	l.Deliveries = append(l.Deliveries, d)
	SortFIFO(l.Deliveries)
	l.recompute()
}

func (l *Ledger) recompute() {
	l.Product.Stock = l.Stock()
}
