package entity

import (
	"time"
)

// IdempotencyKey stores processed requests to prevent duplicates
type IdempotencyKey struct {
	Key          string    `json:"key"`           // The idempotency key from client
	StaffID      string    `json:"staff_id"`      // Staff member who made the request
	Endpoint     string    `json:"endpoint"`      // API endpoint (e.g., "POST /orders")
	RequestHash  string    `json:"request_hash"`  // SHA256 hash of request body (optional)
	ResponseCode int       `json:"response_code"` // HTTP status code of original response
	ResponseBody string    `json:"response_body"` // JSON response body (cached)
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"` // Keys expire after 24 hours
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}
