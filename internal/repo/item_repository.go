package repo

import (
	"errors"

	"github.com/rogerio-castellano/stock-ledger/internal/models"
)

// ErrItemAlreadyExists is returned when provisioning a SKU that already has a
// stock record.
var ErrItemAlreadyExists = errors.New("sku already exists")

// ItemRepository defines the read and provisioning operations on stock
// records. Quantity mutations go through the ledger engine, never through
// this interface.
type ItemRepository interface {
	Create(item models.StockItem) (models.StockItem, error)
	GetBySKU(sku string) (models.StockItem, error)
	Search(query string, limit int) ([]string, error)
}
