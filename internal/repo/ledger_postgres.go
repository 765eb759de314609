package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rogerio-castellano/stock-ledger/internal/models"
)

const defaultLedgerLimit = 100

type PostgresLedgerRepository struct {
	db *sql.DB
}

func NewPostgresLedgerRepository(db *sql.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

// GetBySKU returns ledger entries for a SKU, newest first, optionally
// filtered by date range and paginated. The limit is capped at
// defaultLedgerLimit.
func (r *PostgresLedgerRepository) GetBySKU(sku string, lf LedgerFilter) ([]models.LedgerEntry, int, error) {
	whereClause, args := r.buildWhereClause(sku, lf)

	if lf.Offset != nil && *lf.Offset < 0 {
		return nil, 0, fmt.Errorf("offset must be non-negative")
	}

	total, err := r.getTotal(whereClause, args)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	// limit = 0 means count only
	if lf.Limit != nil && *lf.Limit == 0 {
		return []models.LedgerEntry{}, total, nil
	}

	if lf.Offset != nil && *lf.Offset >= total {
		return []models.LedgerEntry{}, total, nil
	}

	query, queryArgs := r.buildMainQuery(whereClause, args, lf)
	entries, err := r.executeQuery(query, queryArgs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query: %w", err)
	}

	return entries, total, nil
}

func (r *PostgresLedgerRepository) buildWhereClause(sku string, lf LedgerFilter) (string, []any) {
	args := []any{sku}
	whereClause := "WHERE sku = $1"
	argIndex := 2

	if lf.Since != nil {
		whereClause += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, *lf.Since)
		argIndex++
	}

	if lf.Until != nil {
		whereClause += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, *lf.Until)
	}

	return whereClause, args
}

func (r *PostgresLedgerRepository) buildMainQuery(whereClause string, baseArgs []any, lf LedgerFilter) (string, []any) {
	query := fmt.Sprintf(`SELECT id, sku, change_type, quantity_delta, before_quantity, after_quantity, order_id, reason, created_at
		FROM inventory_logs %s ORDER BY created_at DESC, id DESC`, whereClause)
	args := make([]any, len(baseArgs))
	copy(args, baseArgs)
	argIndex := len(baseArgs) + 1

	limit := defaultLedgerLimit
	if lf.Limit != nil && *lf.Limit > 0 {
		limit = min(*lf.Limit, defaultLedgerLimit)
	}
	query += fmt.Sprintf(" LIMIT $%d", argIndex)
	args = append(args, limit)
	argIndex++

	if lf.Offset != nil && *lf.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, *lf.Offset)
	}

	return query, args
}

func (r *PostgresLedgerRepository) getTotal(whereClause string, args []any) (int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM inventory_logs %s", whereClause)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostgresLedgerRepository) executeQuery(query string, args []any) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.SKU, &e.ChangeType, &e.QuantityDelta,
			&e.BeforeQuantity, &e.AfterQuantity, &e.OrderID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
