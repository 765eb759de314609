package models

// StockAlert records a mutation that left a SKU at or below its low-stock
// threshold. Alerts are a log, not a live flag: they are never resolved or
// deleted when stock recovers.
type StockAlert struct {
	ID        int    `json:"id"`
	SKU       string `json:"sku"`
	Threshold int    `json:"threshold"`
	Quantity  int    `json:"quantity"`
	CreatedAt string `json:"created_at"`
}
