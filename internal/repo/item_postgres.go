package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	"github.com/rogerio-castellano/stock-ledger/internal/models"
)

type PostgresItemRepository struct {
	db *sql.DB
}

func NewPostgresItemRepository(db *sql.DB) *PostgresItemRepository {
	return &PostgresItemRepository{db: db}
}

func (r *PostgresItemRepository) Create(item models.StockItem) (models.StockItem, error) {
	query := `INSERT INTO inventory_items (sku, quantity, low_stock_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING sku, quantity, low_stock_threshold, created_at, updated_at`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, item.SKU, item.Quantity, item.Threshold, now, now).
		Scan(&item.SKU, &item.Quantity, &item.Threshold, &item.CreatedAt, &item.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.StockItem{}, ErrItemAlreadyExists
	}
	return item, err
}

func (r *PostgresItemRepository) GetBySKU(sku string) (models.StockItem, error) {
	query := `SELECT sku, quantity, low_stock_threshold, created_at, updated_at
		FROM inventory_items WHERE sku = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var item models.StockItem
	err := r.db.QueryRowContext(ctx, query, sku).
		Scan(&item.SKU, &item.Quantity, &item.Threshold, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StockItem{}, ledger.ErrItemNotFound
	}
	return item, err
}

func (r *PostgresItemRepository) Search(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT sku FROM inventory_items WHERE sku ILIKE $1 ORDER BY sku ASC LIMIT $2`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skus []string
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, err
		}
		skus = append(skus, sku)
	}
	return skus, rows.Err()
}
