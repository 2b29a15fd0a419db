package entity

import (
	"time"

	"github.com/sangkips/mesa-api/internal/domain/enum"
)

type HistoryItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// HistoryEntry is the archived bill of a fully closed table.
type HistoryEntry struct {
	ID             string             `json:"id"`
	ReceiptNo      string             `json:"receipt_no"`
	TableID        string             `json:"table_id"`
	ClientName     string             `json:"client_name"`
	Items          []HistoryItem      `json:"items"`
	Subtotal       float64            `json:"subtotal"`
	Discount       float64            `json:"discount"`
	Total          float64            `json:"total"`
	AmountReceived float64            `json:"amount_received"`
	Change         float64            `json:"change"`
	PaymentMethod  enum.PaymentMethod `json:"payment_method"`
	PaymentHistory []Payment          `json:"payment_history"`
	ClosedBy       string             `json:"closed_by,omitempty"`
	ClosedAt       time.Time          `json:"closed_at"`
}

// CashMovement is one entry of the cash-flow ledger.
type CashMovement struct {
	ID          string             `json:"id"`
	Direction   enum.CashDirection `json:"direction"`
	Amount      float64            `json:"amount"`
	Method      enum.PaymentMethod `json:"method"`
	Description string             `json:"description"`
	TableID     string             `json:"table_id,omitempty"`
	HistoryID   string             `json:"history_id,omitempty"`
	StaffID     string             `json:"staff_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Signed returns the amount with the sign of its direction.
func (m *CashMovement) Signed() float64 {
	if m.Direction == enum.CashOut {
		return -m.Amount
	}
	return m.Amount
}
