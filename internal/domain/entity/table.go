package entity

import (
	"strings"
	"time"

	"github.com/sangkips/mesa-api/internal/domain/enum"
)

// MergedNameSeparator joins client names of merged tables for display.
const MergedNameSeparator = " & "

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Payment is one entry of a table's payment history.
type Payment struct {
	Amount    float64            `json:"amount"`
	Method    enum.PaymentMethod `json:"method"`
	Timestamp time.Time          `json:"timestamp"`
}

// Table is a customer session, identified by the client's name.
type Table struct {
	ID              string           `json:"id"`
	ClientName      string           `json:"client_name"`
	Phone           string           `json:"phone,omitempty"`
	Position        Position         `json:"position"`
	Status          enum.TableStatus `json:"status"`
	AmountPaid      float64          `json:"amount_paid"`
	AmountRemaining float64          `json:"amount_remaining"`
	Discount        float64          `json:"discount"`
	PaymentHistory  []Payment        `json:"payment_history"`
	IsMerged        bool             `json:"is_merged"`
	MemberTableIDs  []string         `json:"member_table_ids,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
}

func (t *Table) IsOpen() bool {
	return t.Status == enum.TableStatusOpen
}

// MemberNames splits a merged display name back into client names.
func (t *Table) MemberNames() []string {
	return strings.Split(t.ClientName, MergedNameSeparator)
}

// MemberSnapshot is the state of one table at the moment it was merged.
// For the surviving table it also carries any merge record it already had.
type MemberSnapshot struct {
	Table       Table              `json:"table"`
	PriorRecord *MergedTableRecord `json:"prior_record,omitempty"`
}

// MergedTableRecord lets a merge be undone. It is keyed by the surviving table's ID.
type MergedTableRecord struct {
	SurvivorID string           `json:"survivor_id"`
	Members    []MemberSnapshot `json:"members"`
	MergedAt   time.Time        `json:"merged_at"`
}

// MemberIDs returns the IDs of every table captured in the record.
func (r *MergedTableRecord) MemberIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		ids = append(ids, m.Table.ID)
	}
	return ids
}
