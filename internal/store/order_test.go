package store

import (
	"testing"

	"github.com/mwhitby/alcove/internal/database"
	"github.com/mwhitby/alcove/internal/model"
)

func setupOrderTestDB(t *testing.T) (*OrderStore, *ProductStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewOrderStore(db), NewProductStore(db)
}

func TestOrderCreate(t *testing.T) {
	os, ps := setupOrderTestDB(t)
	p, _ := ps.Create("Walnut Board", "walnut-board", "", 8500, "usd")

	o, err := os.Create(p.ID, 8500, "usd", "cs_test_123")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if o.Status != model.OrderStatusPending {
		t.Errorf("status = %q, want pending", o.Status)
	}
	if o.Email != "" {
		t.Errorf("email = %q, want empty until payment", o.Email)
	}
}

func TestOrderMarkPaid(t *testing.T) {
	os, ps := setupOrderTestDB(t)
	p, _ := ps.Create("Walnut Board", "walnut-board", "", 8500, "usd")

	os.Create(p.ID, 8500, "usd", "cs_test_123")

	if err := os.MarkPaid("cs_test_123", "alice@example.com"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	o, err := os.GetByStripeSessionID("cs_test_123")
	if err != nil {
		t.Fatalf("get by stripe session: %v", err)
	}
	if o.Status != model.OrderStatusPaid {
		t.Errorf("status = %q, want paid", o.Status)
	}
	if o.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", o.Email)
	}
}

func TestOrderGetByStripeSessionNotFound(t *testing.T) {
	os, _ := setupOrderTestDB(t)

	o, err := os.GetByStripeSessionID("cs_missing")
	if err != nil {
		t.Fatalf("get by stripe session: %v", err)
	}
	if o != nil {
		t.Error("expected nil for unknown session")
	}
}

func TestOrderListNewestFirst(t *testing.T) {
	os, ps := setupOrderTestDB(t)
	board, _ := ps.Create("Walnut Board", "walnut-board", "", 8500, "usd")
	tray, _ := ps.Create("Oak Tray", "oak-tray", "", 4200, "usd")

	os.Create(board.ID, 8500, "usd", "cs_first")
	os.Create(tray.ID, 4200, "usd", "cs_second")

	orders, err := os.List()
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	if orders[0].StripeSessionID != "cs_second" {
		t.Errorf("first listed = %q, want cs_second", orders[0].StripeSessionID)
	}
}
