package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/internal/presentation/http/dto/response"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a device retries a write
// with the same key, so a flaky connection cannot deliver an order or
// take a payment twice. Only 2xx responses are stored; a failed request
// may be retried with the same key.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only apply to POST, PUT, PATCH methods
		if c.Request.Method != "POST" && c.Request.Method != "PUT" && c.Request.Method != "PATCH" {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		staffID, _ := c.Get("staff_id")
		staff, _ := staffID.(string)
		if staff == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Failed to read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		hash := hex.EncodeToString(sum[:])
		endpoint := c.Request.Method + " " + c.FullPath()

		existing, err := config.Repo.GetByKey(c.Request.Context(), idempotencyKey, staff)
		if err != nil {
			log.Printf("Warning: idempotency lookup failed for key %s: %v", idempotencyKey, err)
			c.Next()
			return
		}

		if existing != nil && !existing.IsExpired() {
			if existing.Endpoint != endpoint || existing.RequestHash != hash {
				response.ErrorWithCode(c, 422, "Idempotency-Key was already used for a different request")
				c.Abort()
				return
			}
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(existing.ResponseCode, "application/json", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		// Capture the response
		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		ikey := &entity.IdempotencyKey{
			Key:          idempotencyKey,
			StaffID:      staff,
			Endpoint:     endpoint,
			RequestHash:  hash,
			ResponseCode: c.Writer.Status(),
			ResponseBody: blw.body.String(),
			CreatedAt:    time.Now(),
			ExpiresAt:    time.Now().Add(IdempotencyKeyTTL),
		}
		if err := config.Repo.Create(c.Request.Context(), ikey); err != nil {
			log.Printf("Warning: failed to store idempotency key %s: %v", idempotencyKey, err)
		}
	}
}
