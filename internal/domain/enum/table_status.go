package enum

import (
	"encoding/json"
	"fmt"
)

// TableStatus represents whether a table is still taking orders
type TableStatus int

const (
	TableStatusOpen   TableStatus = 0
	TableStatusClosed TableStatus = 1
)

func (s TableStatus) String() string {
	return [...]string{"open", "closed"}[s]
}

func (s TableStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *TableStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = TableStatus(i)
		return nil
	}
	switch str {
	case "open", "":
		*s = TableStatusOpen
	case "closed":
		*s = TableStatusClosed
	default:
		return fmt.Errorf("unknown table status %q", str)
	}
	return nil
}
