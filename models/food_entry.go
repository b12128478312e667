package models

import (
	"time"

	"gorm.io/gorm"
)

// FoodEntry is one logged food item. Entries store the nutrition snapshot at
// log time and are never updated, only created and deleted.
type FoodEntry struct {
	gorm.Model
	UserID uint `gorm:"index;not null" json:"user_id"`

	Name        string  `gorm:"not null" json:"name"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	ServingSize string  `json:"serving_size"`

	MealType string    `json:"meal_type"` // breakfast|lunch|dinner|snack
	PhotoURL string    `json:"photo_url,omitempty"`
	LoggedAt time.Time `gorm:"index" json:"logged_at"`
}
