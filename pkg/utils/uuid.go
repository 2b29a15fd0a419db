package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID generates a new document identifier
func NewID() string {
	return uuid.New().String()
}

// GenerateReceiptNo generates a short, human-readable receipt number
func GenerateReceiptNo(at time.Time) string {
	return "MESA-" + at.Format("060102") + "-" + strings.ToUpper(uuid.New().String()[:6])
}
