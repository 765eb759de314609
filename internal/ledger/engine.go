package ledger

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/rogerio-castellano/stock-ledger/internal/models"
)

// Tx is a single all-or-nothing unit of work over the stock tables. A row
// locked with ItemForUpdate stays locked until Commit or Rollback, and writes
// made through the transaction are only visible to other callers after Commit.
type Tx interface {
	ItemForUpdate(ctx context.Context, sku string) (models.StockItem, error)
	SetQuantity(ctx context.Context, sku string, quantity int) (models.StockItem, error)
	AppendEntry(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error)
	CreateAlert(ctx context.Context, alert models.StockAlert) (models.StockAlert, error)
	UpsertReservation(ctx context.Context, res models.OrderReservation) error
	Commit() error
	Rollback() error
}

// Store hands out transactions for the engine to run mutations in.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Result reports the outcome of an accepted mutation.
type Result struct {
	Item       models.StockItem
	Entry      models.LedgerEntry
	AlertFired bool
}

// Engine serializes stock mutations per SKU and keeps the stock record, the
// audit ledger and the low-stock alerts consistent with each other. Mutations
// against different SKUs run in parallel; mutations against the same SKU
// queue on the row lock. The engine never retries a failed mutation.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Deduct decreases the quantity of a SKU (a sale). It fails closed with
// InsufficientStockError when the stock cannot cover the requested quantity.
func (e *Engine) Deduct(ctx context.Context, sku string, quantity int, orderID string) (Result, error) {
	if err := validateQuantity(quantity); err != nil {
		return Result{}, err
	}
	if err := validateOrderID(orderID); err != nil {
		return Result{}, err
	}

	return e.apply(ctx, mutation{
		sku:        sku,
		delta:      -quantity,
		changeType: models.ChangeTypeSale,
		orderID:    orderID,
	})
}

// Restore increases the quantity of a SKU after an order was canceled or
// expired. There is no upper bound on the resulting quantity. The order
// reservation is marked in the same atomic unit as the stock update.
func (e *Engine) Restore(ctx context.Context, sku string, quantity int, orderID, reason string) (Result, error) {
	if err := validateQuantity(quantity); err != nil {
		return Result{}, err
	}
	if err := validateOrderID(orderID); err != nil {
		return Result{}, err
	}
	status, err := reservationStatus(reason)
	if err != nil {
		return Result{}, err
	}

	return e.apply(ctx, mutation{
		sku:        sku,
		delta:      quantity,
		changeType: models.ChangeTypeRestockReturn,
		orderID:    orderID,
		reason:     reason,
		reservation: &models.OrderReservation{
			ID:       orderID,
			SKU:      sku,
			Quantity: quantity,
			Status:   status,
		},
	})
}

// Adjust applies a signed manual correction to the quantity of a SKU. The
// same negative-stock guard applies as for sales.
func (e *Engine) Adjust(ctx context.Context, sku string, delta int, note string) (Result, error) {
	if delta == 0 {
		return Result{}, fmt.Errorf("%w: delta must be non-zero", ErrInvalidInput)
	}
	if strings.TrimSpace(note) == "" {
		return Result{}, fmt.Errorf("%w: note is required", ErrInvalidInput)
	}

	return e.apply(ctx, mutation{
		sku:        sku,
		delta:      delta,
		changeType: models.ChangeTypeManualAdjustment,
		reason:     note,
	})
}

type mutation struct {
	sku         string
	delta       int
	changeType  string
	orderID     string
	reason      string
	reservation *models.OrderReservation
}

// apply runs the lock → validate → update → log → alert sequence as one
// atomic unit. Any failure after the lock is taken rolls the whole unit back,
// so the stock record and its audit trail can never diverge.
func (e *Engine) apply(ctx context.Context, m mutation) (Result, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := tx.ItemForUpdate(ctx, m.sku)
	if err != nil {
		return Result{}, err
	}

	newQuantity := item.Quantity + m.delta
	if newQuantity < 0 {
		return Result{}, &InsufficientStockError{
			SKU:       m.sku,
			Available: item.Quantity,
			Requested: -m.delta,
		}
	}

	updated, err := tx.SetQuantity(ctx, m.sku, newQuantity)
	if err != nil {
		return Result{}, fmt.Errorf("update quantity: %w", err)
	}

	entry, err := tx.AppendEntry(ctx, models.LedgerEntry{
		SKU:            m.sku,
		ChangeType:     m.changeType,
		QuantityDelta:  m.delta,
		BeforeQuantity: item.Quantity,
		AfterQuantity:  updated.Quantity,
		OrderID:        m.orderID,
		Reason:         m.reason,
	})
	if err != nil {
		return Result{}, fmt.Errorf("append ledger entry: %w", err)
	}

	alertFired := false
	if updated.Quantity <= updated.Threshold {
		if _, err := tx.CreateAlert(ctx, models.StockAlert{
			SKU:       m.sku,
			Threshold: updated.Threshold,
			Quantity:  updated.Quantity,
		}); err != nil {
			return Result{}, fmt.Errorf("create alert: %w", err)
		}
		alertFired = true
		log.Printf("⚠️ ALERT: %s at or below threshold: qty=%d threshold=%d",
			m.sku, updated.Quantity, updated.Threshold)
	}

	if m.reservation != nil {
		if err := tx.UpsertReservation(ctx, *m.reservation); err != nil {
			return Result{}, fmt.Errorf("upsert reservation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}

	return Result{Item: updated, Entry: entry, AlertFired: alertFired}, nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	return nil
}

func validateOrderID(orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return fmt.Errorf("%w: order_id is required", ErrInvalidInput)
	}
	return nil
}

func reservationStatus(reason string) (string, error) {
	switch reason {
	case "canceled":
		return models.ReservationStatusCanceled, nil
	case "expired":
		return models.ReservationStatusExpired, nil
	}
	return "", fmt.Errorf("%w: reason must be canceled or expired", ErrInvalidInput)
}
