package checkout

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/shipping"
)

const (
	ReasonProductsUnavailable = "products_unavailable"
	ReasonInsufficient        = "insufficient_availability"
)

// requestScope memoizes product reads for the lifetime of one checkout.
type requestScope struct {
	reader   productReader
	products map[uuid.UUID]models.Product
}

func newRequestScope(reader productReader) *requestScope {
	return &requestScope{reader: reader, products: map[uuid.UUID]models.Product{}}
}

// activeProducts loads whichever ids are not cached yet and reports the ids
// that are missing or inactive.
func (s *requestScope) activeProducts(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	pending := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.products[id]; !ok {
			pending = append(pending, id)
		}
	}
	if len(pending) > 0 {
		found, err := s.reader.FindActiveByIDs(ctx, pending)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			s.products[p.ID] = p
		}
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := s.products[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *requestScope) product(id uuid.UUID) models.Product {
	return s.products[id]
}

type pricedLine struct {
	product   models.Product
	quantity  int
	unitCents int64
	lineCents int64
}

// priceLines computes every line from server-side product data, enforcing
// per-product limits and current availability.
func priceLines(scope *requestScope, lines []helpers.Line, currency enums.Currency) ([]pricedLine, int64, error) {
	priced := make([]pricedLine, 0, len(lines))
	var subtotal int64
	for _, line := range lines {
		product := scope.product(line.ProductID)
		if product.Currency != currency {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "product is not sold in the store currency").
				WithDetails(map[string]any{"product_id": product.ID.String(), "currency": product.Currency})
		}

		qty := line.Quantity
		if product.MaxQtyPerOrder != nil && *product.MaxQtyPerOrder > 0 {
			qty = min(qty, *product.MaxQtyPerOrder)
		}
		if qty <= 0 {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_id": product.ID.String()})
		}
		if available := product.Available(); available < qty {
			return nil, 0, pkgerrors.Conflict(ReasonInsufficient, "insufficient availability", map[string]any{
				"product_id": product.ID.String(),
				"available":  max(available, 0),
				"requested":  qty,
			})
		}

		lineCents := product.PriceCents * int64(qty)
		subtotal += lineCents
		priced = append(priced, pricedLine{
			product:   product,
			quantity:  qty,
			unitCents: product.PriceCents,
			lineCents: lineCents,
		})
	}
	return priced, subtotal, nil
}

func unavailable(missing []uuid.UUID) error {
	ids := make([]string, 0, len(missing))
	for _, id := range missing {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return pkgerrors.Conflict(ReasonProductsUnavailable, "products unavailable", map[string]any{
		"missing_product_ids": ids,
	})
}

// shippingCharge picks the shipping amount and the option it came from.
func (s *Service) shippingCharge(ctx context.Context, subtotal int64, mode enums.CheckoutMode, postalCode, selected string) (int64, *string) {
	if s.cfg.FreeShippingThresholdCents > 0 && subtotal >= s.cfg.FreeShippingThresholdCents {
		return 0, nil
	}
	if s.quotes == nil || !mode.RequiresShippingAddress() {
		return s.cfg.ShippingFlatRateCents, nil
	}

	options, err := s.quotes.Quote(ctx, postalCode)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "shipping quote failed, using flat rate")
		return s.cfg.ShippingFlatRateCents, nil
	}
	option, ok := shipping.Cheapest(options, selected)
	if !ok {
		return s.cfg.ShippingFlatRateCents, nil
	}
	id := option.ID
	return option.AmountCents, &id
}
