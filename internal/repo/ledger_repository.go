package repo

import (
	"github.com/rogerio-castellano/stock-ledger/internal/models"
)

type LedgerRepository interface {
	GetBySKU(sku string, lf LedgerFilter) ([]models.LedgerEntry, int, error)
}
