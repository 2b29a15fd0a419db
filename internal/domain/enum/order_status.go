package enum

import (
	"encoding/json"
	"fmt"
)

// OrderStatus represents the status of an order
type OrderStatus int

const (
	OrderStatusAwaiting  OrderStatus = 0
	OrderStatusDelivered OrderStatus = 1
)

func (s OrderStatus) String() string {
	return [...]string{"awaiting", "delivered"}[s]
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = OrderStatus(i)
		return nil
	}
	switch str {
	case "awaiting", "":
		*s = OrderStatusAwaiting
	case "delivered":
		*s = OrderStatusDelivered
	default:
		return fmt.Errorf("unknown order status %q", str)
	}
	return nil
}
