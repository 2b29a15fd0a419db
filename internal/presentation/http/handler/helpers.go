package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetStaffID extracts the signed-in staff ID from the Gin context
func GetStaffID(c *gin.Context) string {
	id, exists := c.Get("staff_id")
	if !exists {
		return ""
	}
	staffID, _ := id.(string)
	return staffID
}

// GetStaffName extracts the signed-in staff name from the Gin context
func GetStaffName(c *gin.Context) string {
	name, exists := c.Get("staff_name")
	if !exists {
		return ""
	}
	staffName, _ := name.(string)
	return staffName
}

// queryDate parses a YYYY-MM-DD query parameter in local time. A missing or
// malformed value yields the zero time.
func queryDate(c *gin.Context, key string) time.Time {
	v := c.Query(key)
	if v == "" {
		return time.Time{}
	}
	d, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return d
}

// dateRange reads from/to as a half-open day range; to is inclusive for the caller.
func dateRange(c *gin.Context) (time.Time, time.Time) {
	from := queryDate(c, "from")
	to := queryDate(c, "to")
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	return from, to
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

func queryFloat(c *gin.Context, key string) float64 {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return v
}
