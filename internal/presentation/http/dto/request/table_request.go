package request

// CreateTableRequest opens a table for a client
type CreateTableRequest struct {
	ClientName string  `json:"client_name" binding:"required,max=255"`
	Phone      string  `json:"phone" binding:"omitempty,max=30"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// MoveTableRequest drags a table on the floor plan by a delta
type MoveTableRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// MergeTablesRequest lists the tables to merge; the first one survives
type MergeTablesRequest struct {
	TableIDs []string `json:"table_ids" binding:"required,min=2,dive,required"`
}

// PaymentRequest is used for both full and partial payments. Closing a bill
// needs amount_received to cover what is due.
type PaymentRequest struct {
	AmountPaid     float64  `json:"amount_paid" binding:"min=0"`
	AmountReceived float64  `json:"amount_received" binding:"min=0"`
	Discount       *float64 `json:"discount" binding:"omitempty,min=0"`
	Method         string   `json:"method" binding:"omitempty,oneof=cash card pix other"`
}

// SendBillRequest picks the phone the bill link is addressed to
type SendBillRequest struct {
	Phone string `json:"phone" binding:"omitempty,max=30"`
}
