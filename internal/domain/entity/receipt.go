package entity

// ReceiptHeader holds the bar's header printed at the top of a bill.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Phone     string `json:"phone,omitempty"`
}

// ReceiptItem represents a single line item on a bill.
type ReceiptItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Receipt is a value object representing a printable bill.
// It is not stored; it is composed from a table and its orders at print time.
type Receipt struct {
	Header     ReceiptHeader `json:"header"`
	ReceiptNo  string        `json:"receipt_no"`
	Date       string        `json:"date"`
	Cashier    string        `json:"cashier,omitempty"`
	TableID    string        `json:"table_id"`
	ClientName string        `json:"client_name"`
	Items      []ReceiptItem `json:"items"`
	SubTotal   float64       `json:"sub_total"`
	Discount   float64       `json:"discount"`
	Total      float64       `json:"total"`
	Paid       float64       `json:"paid"`
	Due        float64       `json:"due"`
	Split      int           `json:"split,omitempty"`
	PerPerson  float64       `json:"per_person,omitempty"`
}
