package controllers

import (
	"net/http"

	"github.com/ZacBytes/caloric/services"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	progress *services.ProgressService
}

func NewProgressController(progress *services.ProgressService) *ProgressController {
	return &ProgressController{progress: progress}
}

// GET /api/progress/daily?date=YYYY-MM-DD
func (ctl *ProgressController) Daily(c *gin.Context) {
	day, ok := dateQuery(c, "date")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	summary, err := ctl.progress.Daily(c.Request.Context(), c.GetUint("userID"), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute progress"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/progress/weekly?end=YYYY-MM-DD
func (ctl *ProgressController) Weekly(c *gin.Context) {
	end, ok := dateQuery(c, "end")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}

	summary, err := ctl.progress.Weekly(c.Request.Context(), c.GetUint("userID"), end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute progress"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/progress/monthly?month=YYYY-MM
func (ctl *ProgressController) Monthly(c *gin.Context) {
	month, ok := monthQuery(c, "month")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
		return
	}

	summary, err := ctl.progress.Monthly(c.Request.Context(), c.GetUint("userID"), month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute progress"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
