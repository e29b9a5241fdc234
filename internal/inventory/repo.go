package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository persists products and their delivery queues.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a repository to the provided DB handle.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if db.IsUniqueViolation(err, "ux_products_sku") {
			return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists").
				WithDetails(map[string]any{"sku": product.SKU})
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return nil
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return &product, nil
}

// FindActiveByIDs returns the active products among ids. Missing or inactive
// products are simply absent from the result.
func (r *Repository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	return products, nil
}

// LoadLedger reads the product row (locked on postgres) and its deliveries.
func (r *Repository) LoadLedger(ctx context.Context, productID uuid.UUID) (*Ledger, error) {
	var product models.Product
	err := db.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", productID).First(&product).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product ledger")
	}

	var deliveries []models.InventoryDelivery
	err = r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		Find(&deliveries).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load deliveries")
	}
	return NewLedger(product, deliveries), nil
}

// SaveLedger writes the whole record back: counters, dropped deliveries and
// every remaining delivery.
func (r *Repository) SaveLedger(ctx context.Context, ledger *Ledger) error {
	conn := r.db.WithContext(ctx)
	ledger.recompute()

	if len(ledger.removed) > 0 {
		if err := conn.Where("id IN ?", ledger.removed).Delete(&models.InventoryDelivery{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete consumed deliveries")
		}
		ledger.removed = nil
	}

	for i := range ledger.Deliveries {
		if err := conn.Save(&ledger.Deliveries[i]).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save delivery")
		}
	}

	err := conn.Model(&models.Product{}).
		Where("id = ?", ledger.Product.ID).
		Updates(map[string]any{
			"stock":           ledger.Product.Stock,
			"allocated_stock": ledger.Product.AllocatedStock,
			"updated_at":      time.Now().UTC(),
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save product counters")
	}
	return nil
}

// TotalWeightGrams sums product weight times quantity over the order items.
func (r *Repository) TotalWeightGrams(ctx context.Context, order *models.Order) (int, error) {
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product weights")
	}
	weights := make(map[uuid.UUID]int, len(products))
	for _, p := range products {
		weights[p.ID] = p.WeightGrams
	}
	total := 0
	for _, item := range order.Items {
		total += weights[item.ProductID] * item.Quantity
	}
	return total, nil
}
