// Package event defines the domain events the core emits after a successful commit.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type is also used as the routing key when events leave the process.
type Type string

const (
	StockChanged Type = "stock.changed"
	MenuChanged  Type = "menu.changed"

	OrderCreated   Type = "order.created"
	OrderDelivered Type = "order.delivered"
	OrderReverted  Type = "order.reverted"
	OrderRemoved   Type = "order.removed"

	TableCreated        Type = "table.created"
	TableMoved          Type = "table.moved"
	TableMerged         Type = "table.merged"
	TableSplit          Type = "table.split"
	TablePartialPayment Type = "table.partial_payment"
	TableRemoved        Type = "table.removed"
	BillClosed          Type = "bill.closed"

	CashRecorded Type = "cash.recorded"
)

// Event is a fact about something that already happened.
type Event struct {
	ID         string      `json:"id"`
	Type       Type        `json:"type"`
	Subject    string      `json:"subject"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// New stamps an event with an id and the current time.
func New(t Type, subject string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Subject:    subject,
		Payload:    payload,
		OccurredAt: time.Now(),
	}
}

// Publisher delivers events to whoever listens. Delivery is best effort:
// implementations log failures instead of returning them, since the state
// change the event describes is already committed.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}

// StockChange is the payload of StockChanged.
type StockChange struct {
	ItemID   string  `json:"item_id"`
	Delta    float64 `json:"delta,omitempty"`
	Quantity float64 `json:"quantity,omitempty"`
	Reason   string  `json:"reason"`
}
