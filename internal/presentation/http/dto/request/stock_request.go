package request

// AddStockRequest creates a stock row and its menu entry, or restocks an existing one
type AddStockRequest struct {
	Name         string  `json:"name" binding:"required,max=255"`
	Quantity     float64 `json:"quantity" binding:"min=0"`
	Unit         string  `json:"unit" binding:"omitempty,max=20"`
	MinThreshold float64 `json:"min_threshold" binding:"min=0"`
	UnitPrice    float64 `json:"unit_price" binding:"min=0"`
	Category     string  `json:"category" binding:"omitempty,max=100"`
	Description  string  `json:"description" binding:"omitempty,max=500"`
	ImageURL     string  `json:"image_url" binding:"omitempty,url"`
}

// StockQuantityRequest carries an absolute quantity or a restock amount
type StockQuantityRequest struct {
	Quantity *float64 `json:"quantity" binding:"required,min=0"`
}

// AvailabilityRequest checks a prospective order against stock
type AvailabilityRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// MenuItemRequest creates or updates a menu entry
type MenuItemRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	UnitPrice   float64 `json:"unit_price" binding:"min=0"`
	Category    string  `json:"category" binding:"omitempty,max=100"`
	Description string  `json:"description" binding:"omitempty,max=500"`
	ImageURL    string  `json:"image_url" binding:"omitempty,url"`
}
