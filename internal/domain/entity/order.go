package entity

import (
	"time"

	"github.com/sangkips/mesa-api/internal/domain/enum"
)

// LineItem is one item of an order. UnitPrice is the menu price when the order was taken.
type LineItem struct {
	ItemName  string  `json:"item_name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Note      string  `json:"note,omitempty"`
}

// Order is a batch of items placed for a table.
type Order struct {
	ID          string           `json:"id"`
	TableID     string           `json:"table_id"`
	Items       []LineItem       `json:"items"`
	Status      enum.OrderStatus `json:"status"`
	Delivered   bool             `json:"delivered"`
	MergeTrail  []string         `json:"merge_trail,omitempty"`
	CreatedBy   string           `json:"created_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	DeliveredAt *time.Time       `json:"delivered_at,omitempty"`
}

// OriginalTableID is the table the order belonged to before the most recent
// merge, or empty when the order was never merged.
func (o *Order) OriginalTableID() string {
	if len(o.MergeTrail) == 0 {
		return ""
	}
	return o.MergeTrail[len(o.MergeTrail)-1]
}

// MoveTo re-points the order at tableID, remembering the current table.
func (o *Order) MoveTo(tableID string) {
	o.MergeTrail = append(o.MergeTrail, o.TableID)
	o.TableID = tableID
}

// MoveBack returns the order to the table it had before the last MoveTo.
func (o *Order) MoveBack() bool {
	prev := o.OriginalTableID()
	if prev == "" {
		return false
	}
	o.TableID = prev
	o.MergeTrail = o.MergeTrail[:len(o.MergeTrail)-1]
	return true
}

// MarkDelivered sets both delivery fields.
func (o *Order) MarkDelivered(at time.Time) {
	o.Delivered = true
	o.Status = enum.OrderStatusDelivered
	o.DeliveredAt = &at
}
