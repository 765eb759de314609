package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	"github.com/rogerio-castellano/stock-ledger/internal/models"
)

// PostgresStore implements the ledger store on top of Postgres transactions.
// SELECT ... FOR UPDATE serializes mutations per SKU while leaving other rows
// untouched, and the surrounding transaction gives the all-or-nothing
// guarantee across the stock, ledger, alert and reservation tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Begin(ctx context.Context) (ledger.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) ItemForUpdate(ctx context.Context, sku string) (models.StockItem, error) {
	query := `SELECT sku, quantity, low_stock_threshold, created_at, updated_at
		FROM inventory_items WHERE sku = $1 FOR UPDATE`

	var item models.StockItem
	err := t.tx.QueryRowContext(ctx, query, sku).
		Scan(&item.SKU, &item.Quantity, &item.Threshold, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StockItem{}, ledger.ErrItemNotFound
	}
	return item, err
}

func (t *postgresTx) SetQuantity(ctx context.Context, sku string, quantity int) (models.StockItem, error) {
	query := `UPDATE inventory_items SET quantity = $1, updated_at = $2 WHERE sku = $3
		RETURNING sku, quantity, low_stock_threshold, created_at, updated_at`

	var item models.StockItem
	err := t.tx.QueryRowContext(ctx, query, quantity, time.Now().UTC(), sku).
		Scan(&item.SKU, &item.Quantity, &item.Threshold, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StockItem{}, ledger.ErrItemNotFound
	}
	return item, err
}

func (t *postgresTx) AppendEntry(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error) {
	query := `INSERT INTO inventory_logs
		(sku, change_type, quantity_delta, before_quantity, after_quantity, order_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	now := time.Now().UTC()
	err := t.tx.QueryRowContext(ctx, query,
		entry.SKU, entry.ChangeType, entry.QuantityDelta,
		entry.BeforeQuantity, entry.AfterQuantity,
		entry.OrderID, entry.Reason, now,
	).Scan(&entry.ID)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("insert ledger entry: %w", err)
	}
	entry.CreatedAt = now.Format(time.RFC3339)
	return entry, nil
}

func (t *postgresTx) CreateAlert(ctx context.Context, alert models.StockAlert) (models.StockAlert, error) {
	query := `INSERT INTO stock_alerts (sku, threshold, quantity, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	now := time.Now().UTC()
	err := t.tx.QueryRowContext(ctx, query, alert.SKU, alert.Threshold, alert.Quantity, now).
		Scan(&alert.ID)
	if err != nil {
		return models.StockAlert{}, fmt.Errorf("insert stock alert: %w", err)
	}
	alert.CreatedAt = now.Format(time.RFC3339)
	return alert, nil
}

func (t *postgresTx) UpsertReservation(ctx context.Context, res models.OrderReservation) error {
	query := `INSERT INTO order_reservations (id, sku, quantity, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`

	if _, err := t.tx.ExecContext(ctx, query, res.ID, res.SKU, res.Quantity, res.Status); err != nil {
		return fmt.Errorf("upsert reservation: %w", err)
	}
	return nil
}

func (t *postgresTx) Commit() error {
	return t.tx.Commit()
}

func (t *postgresTx) Rollback() error {
	return t.tx.Rollback()
}
