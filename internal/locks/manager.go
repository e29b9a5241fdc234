package locks

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	defaultTTL     = 30 * time.Second
	ReasonBusy     = "inventory_busy"
	releaseTimeout = 5 * time.Second
)

// LockSet is the group of product locks held by one checkout.
type LockSet struct {
	Token      string
	ProductIDs []uuid.UUID
}

// Manager acquires product locks all-or-nothing in ascending ID order.
type Manager struct {
	store   Store
	ttl     time.Duration
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics
	now     func() time.Time
}

type ManagerParams struct {
	Store   Store
	TTL     time.Duration
	Logger  *logger.Logger
	Metrics *metrics.StorefrontMetrics
	Now     func() time.Time
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Store == nil {
		return nil, errors.New("lock store required")
	}
	if params.TTL <= 0 {
		params.TTL = defaultTTL
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Manager{
		store:   params.Store,
		ttl:     params.TTL,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     params.Now,
	}, nil
}

// Acquire locks every product or none. A held lock fails fast with an
// inventory_busy conflict; nothing waits.
func (m *Manager) Acquire(ctx context.Context, productIDs []uuid.UUID) (*LockSet, error) {
	set := &LockSet{Token: uuid.NewString()}
	for _, id := range SortedUnique(productIDs) {
		ok, err := m.store.TryAcquire(ctx, id, set.Token, m.ttl, m.now().UTC())
		if err != nil {
			m.Release(ctx, set)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire inventory lock")
		}
		if !ok {
			m.Release(ctx, set)
			m.metrics.IncLockConflict()
			return nil, pkgerrors.Conflict(ReasonBusy, "inventory busy", map[string]any{
				"product_id": id.String(),
			})
		}
		set.ProductIDs = append(set.ProductIDs, id)
	}
	return set, nil
}

// Release drops every lock in the set. Failures are logged; the TTL reclaims
// whatever could not be deleted.
func (m *Manager) Release(ctx context.Context, set *LockSet) {
	if set == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	for _, id := range set.ProductIDs {
		if err := m.store.Release(ctx, id, set.Token); err != nil {
			m.logg.Error(m.logg.WithField(ctx, "product_id", id.String()), "inventory lock release failed", err)
		}
	}
	set.ProductIDs = nil
}

// SortedUnique de-duplicates ids and orders them by their string form.
func SortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
