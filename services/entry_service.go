package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ZacBytes/caloric/models"

	"gorm.io/gorm"
)

var ErrEntryNotFound = errors.New("entry not found")

var mealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

type EntryInput struct {
	Name        string     `json:"name"`
	Calories    float64    `json:"calories"`
	Protein     float64    `json:"protein"`
	Carbs       float64    `json:"carbs"`
	Fat         float64    `json:"fat"`
	ServingSize string     `json:"serving_size"`
	MealType    string     `json:"meal_type"`
	PhotoURL    string     `json:"photo_url"`
	LoggedAt    *time.Time `json:"logged_at"`
}

// EntryService owns the per-user food log. The log is append-only: entries
// are created and deleted, never updated.
type EntryService struct {
	db *gorm.DB
}

func NewEntryService(db *gorm.DB) *EntryService {
	return &EntryService{db: db}
}

func (s *EntryService) Create(ctx context.Context, userID uint, input EntryInput) (*models.FoodEntry, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newValidationError("name is required")
	}
	if !mealTypes[input.MealType] {
		return nil, newValidationError("meal_type must be breakfast, lunch, dinner or snack")
	}

	servingSize := strings.TrimSpace(input.ServingSize)
	if servingSize == "" {
		servingSize = defaultServingSize
	}

	loggedAt := time.Now()
	if input.LoggedAt != nil && !input.LoggedAt.IsZero() {
		loggedAt = *input.LoggedAt
	}

	entry := models.FoodEntry{
		UserID:      userID,
		Name:        name,
		Calories:    max(0, input.Calories),
		Protein:     max(0, input.Protein),
		Carbs:       max(0, input.Carbs),
		Fat:         max(0, input.Fat),
		ServingSize: servingSize,
		MealType:    input.MealType,
		PhotoURL:    input.PhotoURL,
		LoggedAt:    loggedAt,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}

	return &entry, nil
}

// ListDay returns the user's entries for one calendar day, newest first.
func (s *EntryService) ListDay(ctx context.Context, userID uint, day time.Time) ([]models.FoodEntry, error) {
	start := dayStart(day)
	end := start.AddDate(0, 0, 1)
	return s.list(ctx, userID, start, end, "logged_at DESC")
}

// ListRange returns entries between two dates (inclusive), oldest first.
func (s *EntryService) ListRange(ctx context.Context, userID uint, from, to time.Time) ([]models.FoodEntry, error) {
	start := dayStart(from)
	end := dayStart(to).AddDate(0, 0, 1)
	return s.list(ctx, userID, start, end, "logged_at ASC")
}

func (s *EntryService) list(ctx context.Context, userID uint, start, end time.Time, order string) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, start, end).
		Order(order).
		Find(&entries).Error
	return entries, err
}

// Delete removes one of the user's entries. Entries owned by other users are
// indistinguishable from missing ones.
func (s *EntryService) Delete(ctx context.Context, userID, entryID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&models.FoodEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
