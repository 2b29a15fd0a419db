package entity

import (
	"time"

	"github.com/sangkips/mesa-api/internal/domain/enum"
)

// Staff is a waiter or manager who signs in on a device with name and PIN.
type Staff struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	NormalizedName string         `json:"normalized_name"`
	Role           enum.StaffRole `json:"role"`
	PINHash        string         `json:"pin_hash"`
	Active         bool           `json:"active"`
	CreatedAt      time.Time      `json:"created_at"`
	LastLoginAt    *time.Time     `json:"last_login_at,omitempty"`
}

func (s *Staff) IsManager() bool {
	return s.Role == enum.StaffRoleManager
}
