package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/rogerio-castellano/stock-ledger/internal/models"
)

type PostgresAlertRepository struct {
	db *sql.DB
}

func NewPostgresAlertRepository(db *sql.DB) *PostgresAlertRepository {
	return &PostgresAlertRepository{db: db}
}

// GetBySKU returns all alerts for a SKU, newest first.
func (r *PostgresAlertRepository) GetBySKU(sku string) ([]models.StockAlert, error) {
	query := `SELECT id, sku, threshold, quantity, created_at
		FROM stock_alerts WHERE sku = $1 ORDER BY created_at DESC, id DESC`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, sku)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.StockAlert
	for rows.Next() {
		var a models.StockAlert
		if err := rows.Scan(&a.ID, &a.SKU, &a.Threshold, &a.Quantity, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
