package handlers

type ItemRequest struct {
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"low_stock_threshold"`
}

type ItemResponse struct {
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"low_stock_threshold"`
	LowStock  bool   `json:"low_stock"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type DeductRequest struct {
	Quantity int    `json:"quantity"`
	OrderID  string `json:"order_id"`
}

type RestoreRequest struct {
	Quantity int    `json:"quantity"`
	OrderID  string `json:"order_id"`
	Reason   string `json:"reason"`
}

type AdjustRequest struct {
	Delta int    `json:"delta"` // can be positive or negative
	Note  string `json:"note"`
}

type MutationResponse struct {
	SKU         string `json:"sku"`
	NewQuantity int    `json:"new_quantity"`
	LogID       int    `json:"log_id"`
	AlertFired  bool   `json:"alert_fired"`
}

type InsufficientStockResponse struct {
	Error     string `json:"error"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

type Meta struct {
	TotalCount int `json:"total_count"`
}

type LedgerEntryResponse struct {
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

type LedgerSearchResult struct {
	Data []LedgerEntryResponse `json:"data"`
	Meta Meta                  `json:"meta,omitempty"`
}

type AlertResponse struct {
	ID        int    `json:"id"`
	SKU       string `json:"sku"`
	Threshold int    `json:"threshold"`
	Quantity  int    `json:"quantity"`
	CreatedAt string `json:"created_at"`
}
