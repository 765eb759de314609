package ledger_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	"github.com/rogerio-castellano/stock-ledger/internal/models"
	"github.com/rogerio-castellano/stock-ledger/internal/repo"
)

func newTestEngine(t *testing.T, items ...models.StockItem) (*ledger.Engine, *repo.MemoryStore) {
	t.Helper()
	store := repo.NewMemoryStore()
	for _, item := range items {
		if _, err := store.Create(item); err != nil {
			t.Fatalf("failed to seed item %s: %v", item.SKU, err)
		}
	}
	return ledger.NewEngine(store), store
}

func entriesFor(t *testing.T, store *repo.MemoryStore, sku string) []models.LedgerEntry {
	t.Helper()
	entries, _, err := repo.NewMemoryLedgerRepository(store).GetBySKU(sku, repo.LedgerFilter{})
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	return entries
}

func alertsFor(t *testing.T, store *repo.MemoryStore, sku string) []models.StockAlert {
	t.Helper()
	alerts, err := repo.NewMemoryAlertRepository(store).GetBySKU(sku)
	if err != nil {
		t.Fatalf("failed to read alerts: %v", err)
	}
	return alerts
}

func TestDeduct_Success(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-001", Quantity: 10, Threshold: 5})

	result, err := engine.Deduct(context.Background(), "SKU-001", 2, "ORDER-001")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if result.Item.Quantity != 8 {
		t.Errorf("expected quantity 8, got %d", result.Item.Quantity)
	}
	if result.AlertFired {
		t.Error("expected no alert at quantity 8 with threshold 5")
	}

	entries := entriesFor(t, store, "SKU-001")
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ChangeType != models.ChangeTypeSale {
		t.Errorf("expected change type SALE, got %s", e.ChangeType)
	}
	if e.QuantityDelta != -2 || e.BeforeQuantity != 10 || e.AfterQuantity != 8 {
		t.Errorf("unexpected entry delta/before/after: %d/%d/%d", e.QuantityDelta, e.BeforeQuantity, e.AfterQuantity)
	}
	if e.OrderID != "ORDER-001" {
		t.Errorf("expected order id ORDER-001, got %q", e.OrderID)
	}
}

func TestDeduct_TriggersAlert(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-002", Quantity: 10, Threshold: 5})

	result, err := engine.Deduct(context.Background(), "SKU-002", 6, "ORDER-002")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if result.Item.Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", result.Item.Quantity)
	}
	if !result.AlertFired {
		t.Error("expected alert at quantity 4 with threshold 5")
	}

	alerts := alertsFor(t, store, "SKU-002")
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Quantity != 4 || alerts[0].Threshold != 5 {
		t.Errorf("unexpected alert quantity/threshold: %d/%d", alerts[0].Quantity, alerts[0].Threshold)
	}
}

func TestDeduct_InsufficientStock(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-003", Quantity: 5})

	_, err := engine.Deduct(context.Background(), "SKU-003", 6, "ORDER-003")

	var insufficient *ledger.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Available != 5 || insufficient.Requested != 6 {
		t.Errorf("expected available 5 requested 6, got %d/%d", insufficient.Available, insufficient.Requested)
	}

	item, err := store.GetBySKU("SKU-003")
	if err != nil {
		t.Fatalf("failed to read item: %v", err)
	}
	if item.Quantity != 5 {
		t.Errorf("quantity changed on rejected deduction: got %d", item.Quantity)
	}
	if entries := entriesFor(t, store, "SKU-003"); len(entries) != 0 {
		t.Errorf("expected no ledger entries, got %d", len(entries))
	}
}

func TestDeduct_ItemNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Deduct(context.Background(), "NO-SUCH-SKU", 1, "ORDER-004")
	if !errors.Is(err, ledger.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestDeduct_InvalidInput(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-005", Quantity: 5})

	tests := []struct {
		name     string
		quantity int
		orderID  string
	}{
		{"zero quantity", 0, "ORDER-005"},
		{"negative quantity", -1, "ORDER-005"},
		{"missing order id", 1, ""},
		{"blank order id", 1, "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Deduct(context.Background(), "SKU-005", tt.quantity, tt.orderID)
			if !errors.Is(err, ledger.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if entries := entriesFor(t, store, "SKU-005"); len(entries) != 0 {
		t.Errorf("rejected inputs must leave no ledger entries, got %d", len(entries))
	}
}

func TestRestore_Success(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-006", Quantity: 5})

	result, err := engine.Restore(context.Background(), "SKU-006", 1, "ORDER-006", "canceled")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result.Item.Quantity != 6 {
		t.Errorf("expected quantity 6, got %d", result.Item.Quantity)
	}

	entries := entriesFor(t, store, "SKU-006")
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].ChangeType != models.ChangeTypeRestockReturn || entries[0].QuantityDelta != 1 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}

	res, ok := store.Reservation("ORDER-006")
	if !ok {
		t.Fatal("expected a reservation for ORDER-006")
	}
	if res.Status != models.ReservationStatusCanceled {
		t.Errorf("expected status CANCELED, got %s", res.Status)
	}
}

func TestRestore_ExpiredReason(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-007", Quantity: 0})

	if _, err := engine.Restore(context.Background(), "SKU-007", 3, "ORDER-007", "expired"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	res, ok := store.Reservation("ORDER-007")
	if !ok || res.Status != models.ReservationStatusExpired {
		t.Errorf("expected EXPIRED reservation, got %+v (found=%v)", res, ok)
	}
}

func TestRestore_NoUpperBound(t *testing.T) {
	engine, _ := newTestEngine(t, models.StockItem{SKU: "SKU-008", Quantity: 7})

	result, err := engine.Restore(context.Background(), "SKU-008", 100, "ORDER-008", "canceled")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result.Item.Quantity != 107 {
		t.Errorf("expected quantity 107, got %d", result.Item.Quantity)
	}
}

func TestRestore_InvalidReason(t *testing.T) {
	engine, _ := newTestEngine(t, models.StockItem{SKU: "SKU-009", Quantity: 5})

	_, err := engine.Restore(context.Background(), "SKU-009", 1, "ORDER-009", "returned")
	if !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAdjust(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-010", Quantity: 5})

	result, err := engine.Adjust(context.Background(), "SKU-010", -3, "damaged in warehouse")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result.Item.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", result.Item.Quantity)
	}

	entries := entriesFor(t, store, "SKU-010")
	if len(entries) != 1 || entries[0].ChangeType != models.ChangeTypeManualAdjustment {
		t.Fatalf("expected one MANUAL_ADJUSTMENT entry, got %+v", entries)
	}
	if entries[0].Reason != "damaged in warehouse" {
		t.Errorf("expected note on ledger entry, got %q", entries[0].Reason)
	}

	if _, err := engine.Adjust(context.Background(), "SKU-010", -3, "more damage"); err == nil {
		t.Error("expected insufficient stock on adjustment below zero")
	}
	if _, err := engine.Adjust(context.Background(), "SKU-010", 0, "noop"); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero delta, got %v", err)
	}
	if _, err := engine.Adjust(context.Background(), "SKU-010", 1, " "); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank note, got %v", err)
	}
}

func TestThresholdInclusive(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-011", Quantity: 6, Threshold: 5})

	result, err := engine.Deduct(context.Background(), "SKU-011", 1, "ORDER-011a")
	if err != nil {
		t.Fatalf("first deduct failed: %v", err)
	}
	if result.Item.Quantity != 5 || !result.AlertFired {
		t.Errorf("expected quantity 5 with alert, got %d alert=%v", result.Item.Quantity, result.AlertFired)
	}

	result, err = engine.Deduct(context.Background(), "SKU-011", 1, "ORDER-011b")
	if err != nil {
		t.Fatalf("second deduct failed: %v", err)
	}
	if result.Item.Quantity != 4 || !result.AlertFired {
		t.Errorf("expected quantity 4 with alert, got %d alert=%v", result.Item.Quantity, result.AlertFired)
	}

	// Alerts are a log, not a flag: every crossing writes a new row.
	if alerts := alertsFor(t, store, "SKU-011"); len(alerts) != 2 {
		t.Errorf("expected 2 alerts, got %d", len(alerts))
	}
}

func TestAtomicity_AppendFailureRollsBack(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-012", Quantity: 10, Threshold: 20})

	store.FailNextAppend(errors.New("disk full"))

	_, err := engine.Deduct(context.Background(), "SKU-012", 2, "ORDER-012")
	if err == nil {
		t.Fatal("expected failure when ledger append fails")
	}
	if errors.Is(err, ledger.ErrInvalidInput) || errors.Is(err, ledger.ErrItemNotFound) {
		t.Fatalf("storage failure must not surface as a structured outcome: %v", err)
	}

	item, err := store.GetBySKU("SKU-012")
	if err != nil {
		t.Fatalf("failed to read item: %v", err)
	}
	if item.Quantity != 10 {
		t.Errorf("expected full rollback to quantity 10, got %d", item.Quantity)
	}
	if entries := entriesFor(t, store, "SKU-012"); len(entries) != 0 {
		t.Errorf("expected no orphan ledger entries, got %d", len(entries))
	}
	if alerts := alertsFor(t, store, "SKU-012"); len(alerts) != 0 {
		t.Errorf("expected no orphan alerts, got %d", len(alerts))
	}

	// The store works again after the injected failure.
	if _, err := engine.Deduct(context.Background(), "SKU-012", 2, "ORDER-012"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestConcurrentDeducts_ExactlyOneWinner(t *testing.T) {
	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-013", Quantity: 1})

	const callers = 5
	var successCount, conflictCount atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			_, err := engine.Deduct(context.Background(), "SKU-013", 1, "ORDER-013")
			var insufficient *ledger.InsufficientStockError
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.As(err, &insufficient):
				conflictCount.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 winner, got %d", successCount.Load())
	}
	if conflictCount.Load() != callers-1 {
		t.Errorf("expected %d conflicts, got %d", callers-1, conflictCount.Load())
	}

	item, _ := store.GetBySKU("SKU-013")
	if item.Quantity != 0 {
		t.Errorf("expected final quantity 0, got %d", item.Quantity)
	}
}

func TestConcurrentDeducts_NoNegativeStockAndValidChain(t *testing.T) {
	const initial = 100
	const callers = 200

	engine, store := newTestEngine(t, models.StockItem{SKU: "SKU-014", Quantity: initial})

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Deduct(context.Background(), "SKU-014", 1, "ORDER-014"); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != initial {
		t.Errorf("expected %d successes, got %d", initial, successCount.Load())
	}

	item, _ := store.GetBySKU("SKU-014")
	if item.Quantity != 0 {
		t.Errorf("expected final quantity 0, got %d", item.Quantity)
	}

	// Every committed mutation appears exactly once and the (before, after)
	// pairs chain without gaps or overlaps.
	limit := initial
	entries, total, err := repo.NewMemoryLedgerRepository(store).GetBySKU("SKU-014", repo.LedgerFilter{Limit: &limit})
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	if total != initial {
		t.Fatalf("expected %d ledger entries, got %d", initial, total)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	deltaSum := 0
	for i, e := range entries {
		if e.AfterQuantity != e.BeforeQuantity+e.QuantityDelta {
			t.Fatalf("entry %d violates after = before + delta: %+v", e.ID, e)
		}
		if i > 0 && entries[i-1].AfterQuantity != e.BeforeQuantity {
			t.Fatalf("broken chain between entries %d and %d", entries[i-1].ID, e.ID)
		}
		deltaSum += e.QuantityDelta
	}
	if deltaSum != item.Quantity-initial {
		t.Errorf("sum of deltas %d does not equal final-initial %d", deltaSum, item.Quantity-initial)
	}
}
