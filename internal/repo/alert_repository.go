package repo

import (
	"github.com/rogerio-castellano/stock-ledger/internal/models"
)

type AlertRepository interface {
	GetBySKU(sku string) ([]models.StockAlert, error)
}
