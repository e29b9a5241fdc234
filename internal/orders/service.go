package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const orderNumberPrefix = "SF"

// Service exposes order reads for the HTTP layer.
type Service interface {
	Lookup(ctx context.Context, orderNumber, email string) (*View, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	return &service{repo: repo}, nil
}

// Lookup returns the order only when the email matches the customer on it.
// A mismatch is reported as not found so order numbers cannot be probed.
func (s *service) Lookup(ctx context.Context, orderNumber, email string) (*View, error) {
	if strings.TrimSpace(orderNumber) == "" || strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number and email are required")
	}
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(order.CustomerEmail), strings.TrimSpace(email)) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return newView(order), nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	return s.repo.List(ctx, params, filters)
}

// NewOrderNumber builds a human readable order number such as
// SF-20260301-3F9A1C2B.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return orderNumberPrefix + "-" + now.UTC().Format("20060102") + "-" + suffix
}
