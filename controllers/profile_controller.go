package controllers

import (
	"errors"
	"net/http"

	"github.com/ZacBytes/caloric/models"
	"github.com/ZacBytes/caloric/services"
	"github.com/ZacBytes/caloric/utils"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	profiles *services.ProfileService
}

func NewProfileController(profiles *services.ProfileService) *ProfileController {
	return &ProfileController{profiles: profiles}
}

func (ctl *ProfileController) Get(c *gin.Context) {
	profile, err := ctl.profiles.Get(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}

	c.JSON(http.StatusOK, profilePayload(profile))
}

func (ctl *ProfileController) Update(c *gin.Context) {
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := ctl.profiles.Upsert(c.Request.Context(), c.GetUint("userID"), input)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save profile"})
		return
	}

	c.JSON(http.StatusOK, profilePayload(profile))
}

// profilePayload attaches the derived daily macro targets so clients don't
// re-implement the split.
func profilePayload(p *models.Profile) gin.H {
	proteinG, carbsG, fatG := utils.MacroTargets(p.TargetCalories)
	return gin.H{
		"profile": p,
		"macro_targets": gin.H{
			"protein_g": utils.Round2(proteinG),
			"carbs_g":   utils.Round2(carbsG),
			"fat_g":     utils.Round2(fatG),
		},
	}
}
