package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoggerMiddleware logs one line per request with the request ID and the
// staff member who made it.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if len(requestID) < 8 {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" && c.Query("access_token") == "" {
			path = path + "?" + raw
		}

		c.Next()

		staff, _ := c.Get("staff_name")
		if staff == nil {
			staff = "-"
		}
		status := c.Writer.Status()
		line := "[%s] %s | %d | %v | %s | %v | %s"
		if status >= 500 {
			line = "[%s] Error: %s | %d | %v | %s | %v | %s"
		}
		log.Printf(line,
			requestID[:8],
			c.Request.Method,
			status,
			time.Since(start),
			c.ClientIP(),
			staff,
			path,
		)

		for _, e := range c.Errors {
			log.Printf("[%s] Error: %v", requestID[:8], e.Err)
		}
	}
}
