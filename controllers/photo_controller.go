package controllers

import (
	"errors"
	"net/http"

	"github.com/ZacBytes/caloric/services"

	"github.com/gin-gonic/gin"
)

type uploadRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

type PhotoController struct {
	photos *services.PhotoService
}

func NewPhotoController(photos *services.PhotoService) *PhotoController {
	return &PhotoController{photos: photos}
}

// POST /api/photos { "image_base64": "data:image/...;base64,..." }
func (ctl *PhotoController) Upload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_base64 is required"})
		return
	}

	url, err := ctl.photos.Upload(c.Request.Context(), c.GetUint("userID"), req.ImageBase64)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		case errors.Is(err, services.ErrStorageDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage is not configured"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
