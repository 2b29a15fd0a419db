package request

// PrintBillRequest is the request body for printing a table's bill.
type PrintBillRequest struct {
	Split int `json:"split" binding:"omitempty,min=1,max=50"`
}
