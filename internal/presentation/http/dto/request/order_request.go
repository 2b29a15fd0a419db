package request

// OrderItemRequest is one line of an order
type OrderItemRequest struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Note     string  `json:"note" binding:"omitempty,max=255"`
}

// CreateOrderRequest places an order on a table
type CreateOrderRequest struct {
	TableID string             `json:"table_id" binding:"required"`
	Items   []OrderItemRequest `json:"items" binding:"required,min=1"`
}
