// Package dbtest opens isolated in-memory sqlite databases with the full
// storefront schema for package tests.
package dbtest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// New returns a migrated client. The pool is pinned to one connection so the
// shared-cache database behaves like a single serialized writer.
func New(t testing.TB) *db.Client {
	t.Helper()

	dsn := "file:storefront_" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return db.Wrap(conn)
}

// SeedProduct creates an active USD product with one undated delivery per
// quantity, costed at 1.00 per unit.
func SeedProduct(t testing.TB, client *db.Client, sku string, priceCents int64, quantities ...int) models.Product {
	t.Helper()

	product := models.Product{
		SKU:        sku,
		Title:      "Product " + sku,
		PriceCents: priceCents,
		Currency:   enums.CurrencyUSD,
		IsActive:   true,
	}
	for _, q := range quantities {
		product.Stock += q
	}
	if err := client.DB().Create(&product).Error; err != nil {
		t.Fatalf("seed product %s: %v", sku, err)
	}
	for i, q := range quantities {
		delivery := models.InventoryDelivery{
			ProductID:   product.ID,
			Lot:         sku + "-lot",
			Quantity:    q,
			CostPerUnit: decimal.NewFromInt(1),
			TotalCost:   decimal.NewFromInt(int64(q)),
			Position:    int64(i + 1),
		}
		if err := client.DB().Create(&delivery).Error; err != nil {
			t.Fatalf("seed delivery %s: %v", sku, err)
		}
	}
	return product
}

// ReloadProduct reads the current product row.
func ReloadProduct(t testing.TB, client *db.Client, id uuid.UUID) models.Product {
	t.Helper()

	var product models.Product
	if err := client.DB().Where("id = ?", id).First(&product).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product
}

// Line is one product and quantity for SeedOrder.
type Line struct {
	Product  models.Product
	Quantity int
}

// SeedOrder inserts a pending order with the given lines. It does not touch
// the inventory ledger.
func SeedOrder(t testing.TB, client *db.Client, lines ...Line) models.Order {
	t.Helper()

	order := models.Order{
		OrderNumber:       "SF-TEST-" + strings.ToUpper(uuid.NewString()[:8]),
		CustomerEmail:     "buyer@example.com",
		CustomerName:      "Test Buyer",
		ShippingAddress:   types.Address{Name: "Test Buyer", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"},
		CheckoutMode:      enums.CheckoutModeEmbedded,
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusPending,
		Currency:          enums.CurrencyUSD,
		FulfillmentStatus: enums.FulfillmentStatusUnfulfilled,
	}
	for _, line := range lines {
		total := line.Product.PriceCents * int64(line.Quantity)
		order.SubtotalCents += total
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      line.Product.ID,
			Title:          line.Product.Title,
			SKU:            line.Product.SKU,
			UnitPriceCents: line.Product.PriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: total,
		})
	}
	order.TotalCents = order.SubtotalCents
	if err := client.DB().Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

// ReloadOrder reads the current order row with its items.
func ReloadOrder(t testing.TB, client *db.Client, id uuid.UUID) models.Order {
	t.Helper()

	var order models.Order
	if err := client.DB().Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return order
}
