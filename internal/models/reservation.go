package models

const (
	ReservationStatusCanceled = "CANCELED"
	ReservationStatusExpired  = "EXPIRED"
)

// OrderReservation tracks the final state of an order whose stock was
// restored. Keyed by the caller's order id so a retried restore overwrites
// the status instead of duplicating the row.
type OrderReservation struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}
