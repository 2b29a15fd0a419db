package entity

import "time"

// StockItem is one row of the bar's inventory. Its ID is the normalized item name.
type StockItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit,omitempty"`
	MinThreshold float64   `json:"min_threshold"`
	UnitPrice    float64   `json:"unit_price"`
	Category     string    `json:"category,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsLow reports whether the quantity is at or below the item's threshold.
func (s *StockItem) IsLow() bool {
	return s.Quantity <= s.MinThreshold
}

// MenuItem is what the staff can sell. Its key is the normalized item name.
type MenuItem struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	UnitPrice   float64   `json:"unit_price"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
