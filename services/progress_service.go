package services

import (
	"context"
	"errors"
	"time"

	"github.com/ZacBytes/caloric/models"
	"github.com/ZacBytes/caloric/utils"

	"gorm.io/gorm"
)

// MetricProgress reports consumption against a target for one nutrient.
// Percent is a fraction of the target, capped at 1.
type MetricProgress struct {
	Consumed float64 `json:"consumed"`
	Target   float64 `json:"target"`
	Percent  float64 `json:"percent"`
}

type DailySummary struct {
	Date    string                    `json:"date"`
	Entries int                       `json:"entries"`
	Metrics map[string]MetricProgress `json:"metrics"`
}

type DayBucket struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Entries  int     `json:"entries"`
}

type RangeSummary struct {
	From     string             `json:"from"`
	To       string             `json:"to"`
	Days     []DayBucket        `json:"days"`
	Averages map[string]float64 `json:"averages"`
}

type ProgressService struct {
	db       *gorm.DB
	profiles *ProfileService
}

func NewProgressService(db *gorm.DB, profiles *ProfileService) *ProgressService {
	return &ProgressService{db: db, profiles: profiles}
}

// Daily sums one calendar day of entries and reports each nutrient against
// the profile's targets. Users without a profile get zero targets.
func (s *ProgressService) Daily(ctx context.Context, userID uint, day time.Time) (*DailySummary, error) {
	start := dayStart(day)
	end := start.AddDate(0, 0, 1)

	entries, err := s.entriesBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	var calories, protein, carbs, fat float64
	for _, e := range entries {
		calories += e.Calories
		protein += e.Protein
		carbs += e.Carbs
		fat += e.Fat
	}

	targetCalories, targetProtein, targetCarbs, targetFat, err := s.targets(ctx, userID)
	if err != nil {
		return nil, err
	}

	pct := func(consumed, target float64) float64 {
		if target <= 0 {
			return 0
		}
		p := consumed / target
		if p > 1 {
			p = 1
		}
		return utils.Round2(p)
	}

	return &DailySummary{
		Date:    start.Format("2006-01-02"),
		Entries: len(entries),
		Metrics: map[string]MetricProgress{
			"calories": {Consumed: utils.Round2(calories), Target: utils.Round2(targetCalories), Percent: pct(calories, targetCalories)},
			"protein":  {Consumed: utils.Round2(protein), Target: utils.Round2(targetProtein), Percent: pct(protein, targetProtein)},
			"carbs":    {Consumed: utils.Round2(carbs), Target: utils.Round2(targetCarbs), Percent: pct(carbs, targetCarbs)},
			"fat":      {Consumed: utils.Round2(fat), Target: utils.Round2(targetFat), Percent: pct(fat, targetFat)},
		},
	}, nil
}

// Weekly buckets the seven days ending at end, one bucket per day.
func (s *ProgressService) Weekly(ctx context.Context, userID uint, end time.Time) (*RangeSummary, error) {
	last := dayStart(end)
	first := last.AddDate(0, 0, -6)
	return s.rangeSummary(ctx, userID, first, last)
}

// Monthly buckets the calendar month containing day.
func (s *ProgressService) Monthly(ctx context.Context, userID uint, day time.Time) (*RangeSummary, error) {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	last := first.AddDate(0, 1, -1)
	return s.rangeSummary(ctx, userID, first, last)
}

func (s *ProgressService) rangeSummary(ctx context.Context, userID uint, first, last time.Time) (*RangeSummary, error) {
	entries, err := s.entriesBetween(ctx, userID, first, last.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*DayBucket)
	for _, e := range entries {
		key := dayStart(e.LoggedAt).Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &DayBucket{Date: key}
			buckets[key] = b
		}
		b.Calories += e.Calories
		b.Protein += e.Protein
		b.Carbs += e.Carbs
		b.Fat += e.Fat
		b.Entries++
	}

	// Days without entries still appear, zero-filled, so charts have a
	// continuous axis.
	var days []DayBucket
	var total DayBucket
	var logged int
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		b := buckets[key]
		if b == nil {
			b = &DayBucket{Date: key}
		} else {
			total.Calories += b.Calories
			total.Protein += b.Protein
			total.Carbs += b.Carbs
			total.Fat += b.Fat
			logged++
		}
		b.Calories = utils.Round2(b.Calories)
		b.Protein = utils.Round2(b.Protein)
		b.Carbs = utils.Round2(b.Carbs)
		b.Fat = utils.Round2(b.Fat)
		days = append(days, *b)
	}

	averages := map[string]float64{"calories": 0, "protein": 0, "carbs": 0, "fat": 0}
	if logged > 0 {
		n := float64(logged)
		averages["calories"] = utils.Round2(total.Calories / n)
		averages["protein"] = utils.Round2(total.Protein / n)
		averages["carbs"] = utils.Round2(total.Carbs / n)
		averages["fat"] = utils.Round2(total.Fat / n)
	}

	return &RangeSummary{
		From:     first.Format("2006-01-02"),
		To:       last.Format("2006-01-02"),
		Days:     days,
		Averages: averages,
	}, nil
}

func (s *ProgressService) entriesBetween(ctx context.Context, userID uint, start, end time.Time) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, start, end).
		Find(&entries).Error
	return entries, err
}

func (s *ProgressService) targets(ctx context.Context, userID uint) (calories, protein, carbs, fat float64, err error) {
	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return 0, 0, 0, 0, nil
	}
	if err != nil {
		return 0, 0, 0, 0, err
	}
	calories = profile.TargetCalories
	protein, carbs, fat = utils.MacroTargets(calories)
	return calories, protein, carbs, fat, nil
}

