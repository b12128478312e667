package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ZacBytes/caloric/services"

	"github.com/gin-gonic/gin"
)

type EntryController struct {
	entries *services.EntryService
}

func NewEntryController(entries *services.EntryService) *EntryController {
	return &EntryController{entries: entries}
}

// POST /api/entries
func (ctl *EntryController) Create(c *gin.Context) {
	var input services.EntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := ctl.entries.Create(c.Request.Context(), c.GetUint("userID"), input)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// GET /api/entries?date=YYYY-MM-DD or ?from=YYYY-MM-DD&to=YYYY-MM-DD
func (ctl *EntryController) List(c *gin.Context) {
	userID := c.GetUint("userID")

	if c.Query("from") != "" || c.Query("to") != "" {
		from, okFrom := dateQuery(c, "from")
		to, okTo := dateQuery(c, "to")
		if !okFrom || !okTo || c.Query("from") == "" || c.Query("to") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must both be YYYY-MM-DD"})
			return
		}
		if to.Before(from) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must not precede from"})
			return
		}
		entries, err := ctl.entries.ListRange(c.Request.Context(), userID, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load entries"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
		return
	}

	day, ok := dateQuery(c, "date")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	entries, err := ctl.entries.ListDay(c.Request.Context(), userID, day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// DELETE /api/entries/:id
func (ctl *EntryController) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	err = ctl.entries.Delete(c.Request.Context(), c.GetUint("userID"), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete entry"})
		return
	}

	c.Status(http.StatusNoContent)
}
