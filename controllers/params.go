package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// dateQuery reads a YYYY-MM-DD query parameter. Absent means today.
func dateQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Now(), true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// monthQuery reads a YYYY-MM query parameter. Absent means the current month.
func monthQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Now(), true
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
