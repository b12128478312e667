package controllers

import (
	"errors"
	"net/http"

	"github.com/ZacBytes/caloric/services"

	"github.com/gin-gonic/gin"
)

type estimateRequest struct {
	PromptKind string `json:"prompt_kind"`
	FoodQuery  string `json:"foodQuery"`
	Image      string `json:"image"`
}

// EstimateController fronts the nutrition estimation service.
type EstimateController struct {
	estimator *services.EstimationService
}

func NewEstimateController(estimator *services.EstimationService) *EstimateController {
	return &EstimateController{estimator: estimator}
}

// POST /food/estimate { "prompt_kind": "text", "foodQuery": "..." }
//
//	or { "prompt_kind": "image", "image": "data:image/...;base64,..." }
func (ctl *EstimateController) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	items, err := ctl.estimator.Estimate(c.Request.Context(), services.EstimateInput{
		PromptKind: req.PromptKind,
		FoodQuery:  req.FoodQuery,
		Image:      req.Image,
	})
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		case errors.Is(err, services.ErrNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "nutrition estimator is not configured"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "estimation failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": items})
}
