package services

import (
	"context"
	"errors"

	"github.com/ZacBytes/caloric/models"
	"github.com/ZacBytes/caloric/utils"

	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileInput struct {
	Sex           string  `json:"sex"`
	Age           int     `json:"age"`
	HeightCm      float64 `json:"height_cm"`
	WeightKg      float64 `json:"weight_kg"`
	ActivityLevel string  `json:"activity_level"`
	Goal          string  `json:"goal"`
}

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Upsert saves the user's body metrics and recomputes BMR, maintenance and
// target calories from them. Input validation errors come back as
// *ValidationError.
func (s *ProfileService) Upsert(ctx context.Context, userID uint, input ProfileInput) (*models.Profile, error) {
	bmr, err := utils.MifflinStJeorBMR(input.Sex, input.WeightKg, input.HeightCm, input.Age)
	if err != nil {
		return nil, newValidationError("%v", err)
	}

	multiplier, err := utils.ActivityMultiplier(input.ActivityLevel)
	if err != nil {
		return nil, newValidationError("%v", err)
	}
	maintenance := bmr * multiplier

	target, err := utils.TargetCalories(maintenance, input.Goal)
	if err != nil {
		return nil, newValidationError("%v", err)
	}

	var profile models.Profile
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Assign(map[string]any{
			"sex":                  input.Sex,
			"age":                  input.Age,
			"height_cm":            input.HeightCm,
			"weight_kg":            input.WeightKg,
			"activity_level":       input.ActivityLevel,
			"goal":                 input.Goal,
			"bmr":                  bmr,
			"maintenance_calories": maintenance,
			"target_calories":      target,
			"user_id":              userID,
		}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}

	return &profile, nil
}
