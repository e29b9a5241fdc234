package helpers

import (
	"math"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Line is one requested product and quantity.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// NormalizeLines merges duplicate products, drops non-positive quantities
// and clamps each line to maxQty (no limit when maxQty <= 0). Merged
// quantities saturate at the limit instead of overflowing. The first-seen
// order is kept.
func NormalizeLines(lines []Line, maxQty int) ([]Line, error) {
	limit := maxQty
	if limit <= 0 {
		limit = math.MaxInt
	}
	index := make(map[uuid.UUID]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil || line.Quantity <= 0 {
			continue
		}
		qty := min(line.Quantity, limit)
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity = min(out[i].Quantity, limit-qty) + qty
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, Line{ProductID: line.ProductID, Quantity: qty})
	}
	if len(out) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	return out, nil
}

// ProductIDs lists the product of every line.
func ProductIDs(lines []Line) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}
