package models

import (
	"gorm.io/gorm"
)

// One Profile per user: body metrics plus the calorie targets computed from
// them. Targets are recomputed on every profile save.
type Profile struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`

	Sex           string  `json:"sex"` // "male"|"female"
	Age           int     `json:"age"`
	HeightCm      float64 `json:"height_cm"`
	WeightKg      float64 `json:"weight_kg"`
	ActivityLevel string  `json:"activity_level"` // sedentary|light|moderate|active|very_active
	Goal          string  `json:"goal"`           // lose|maintain|gain

	BMR                 float64 `json:"bmr"`
	MaintenanceCalories float64 `json:"maintenance_calories"`
	TargetCalories      float64 `json:"target_calories"`
}
