package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestShippedMigrationsValidate(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations invalid: %v", err)
	}
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestValidateFSRejectsDuplicateVersionsAndMissingDown(t *testing.T) {
	body := []byte("-- +goose Up\n-- +goose Down\n")
	dup := fstest.MapFS{
		"20260101000000_a.sql": {Data: body},
		"20260101000000_b.sql": {Data: body},
	}
	if err := ValidateFS(dup, "."); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}

	noDown := fstest.MapFS{"20260101000000_a.sql": {Data: []byte("-- +goose Up\n")}}
	if err := ValidateFS(noDown, "."); err == nil {
		t.Fatal("expected missing Down marker error")
	}

	if err := ValidateFS(fstest.MapFS{"README.md": {Data: []byte("x")}}, "."); err == nil {
		t.Fatal("expected error when no migrations are present")
	}
}

func TestMigrationsContainInventoryConstraints(t *testing.T) {
	checks := map[string][]string{
		"*_create_products.sql": {
			"CHECK (allocated_stock >= 0)",
			"ux_products_sku",
		},
		"*_create_inventory_locks.sql": {
			"product_id uuid PRIMARY KEY",
			"expires_at timestamptz NOT NULL",
		},
		"*_create_orders.sql": {
			"CHECK (NOT (inventory_committed AND allocation_released))",
			"ux_orders_order_number",
			"ON DELETE CASCADE",
		},
		"*_create_webhook_events.sql": {
			"ux_webhook_events_event_id",
			"DROP TABLE IF EXISTS webhook_events",
		},
	}

	for pattern, wants := range checks {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil || len(matches) != 1 {
			t.Fatalf("expected exactly one %s migration, got %v (%v)", pattern, matches, err)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		for _, sub := range wants {
			if !strings.Contains(string(data), sub) {
				t.Errorf("%s missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	restore := now
	now = func() time.Time { return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = restore })

	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Lot-Index!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260302093000_add_lot_index.sql" {
		t.Fatalf("unexpected path %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "add lot index"); err == nil {
		t.Fatal("expected an error for an existing version")
	}
	if _, err := CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected an error for an empty slug")
	}
}
