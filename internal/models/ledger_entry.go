package models

// Change types recorded in the inventory ledger.
const (
	ChangeTypeSale             = "SALE"
	ChangeTypeRestockReturn    = "RESTOCK_RETURN"
	ChangeTypeManualAdjustment = "MANUAL_ADJUSTMENT"
)

// LedgerEntry is one immutable row of the append-only audit ledger. The
// before/after quantities always satisfy after = before + delta.
type LedgerEntry struct {
	ID             int    `json:"id"`
	SKU            string `json:"sku"`
	ChangeType     string `json:"change_type"`
	QuantityDelta  int    `json:"quantity_delta"`
	BeforeQuantity int    `json:"before_quantity"`
	AfterQuantity  int    `json:"after_quantity"`
	OrderID        string `json:"order_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
	CreatedAt      string `json:"created_at"`
}
