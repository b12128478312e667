package utils

import (
	"errors"
	"math"
)

// Kilocalories per gram of each macronutrient.
const (
	KcalPerGramProtein = 4.0
	KcalPerGramCarbs   = 4.0
	KcalPerGramFat     = 9.0
)

// MinimumTargetCalories floors computed targets; deficits never push a
// target below this.
const MinimumTargetCalories = 1200.0

// MifflinStJeorBMR computes basal metabolic rate from body metrics. Expects
// weight in kilograms, height in centimeters. This is the primary formula
// used for calorie targets.
func MifflinStJeorBMR(sex string, weightKg, heightCm float64, age int) (float64, error) {
	if err := checkMetrics(weightKg, heightCm, age); err != nil {
		return 0, err
	}

	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age)
	switch sex {
	case "male":
		bmr += 5
	case "female":
		bmr -= 161
	default:
		return 0, errors.New("sex must be 'male' or 'female'")
	}
	return bmr, nil
}

// HarrisBenedictBMR computes BMR with the revised Harris-Benedict formula.
// Kept alongside Mifflin-St Jeor for comparison displays.
func HarrisBenedictBMR(sex string, weightKg, heightCm float64, age int) (float64, error) {
	if err := checkMetrics(weightKg, heightCm, age); err != nil {
		return 0, err
	}

	switch sex {
	case "male":
		return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*float64(age), nil
	case "female":
		return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*float64(age), nil
	default:
		return 0, errors.New("sex must be 'male' or 'female'")
	}
}

// checkMetrics rejects garbage input before it reaches a formula.
func checkMetrics(weightKg, heightCm float64, age int) error {
	if weightKg <= 0 || heightCm <= 0 || age <= 0 {
		return errors.New("weight, height and age must be positive")
	}
	if heightCm < 100 || heightCm > 250 || weightKg < 30 || weightKg > 350 || age < 13 || age > 120 {
		return errors.New("body metrics out of plausible range")
	}
	return nil
}

// ActivityMultiplier maps an activity level to its TDEE factor.
func ActivityMultiplier(level string) (float64, error) {
	switch level {
	case "sedentary":
		return 1.2, nil
	case "light":
		return 1.375, nil
	case "moderate":
		return 1.55, nil
	case "active":
		return 1.725, nil
	case "very_active":
		return 1.9, nil
	default:
		return 0, errors.New("unknown activity level")
	}
}

// TargetCalories adjusts maintenance calories for the user's goal. Deficits
// are floored at MinimumTargetCalories.
func TargetCalories(maintenance float64, goal string) (float64, error) {
	var target float64
	switch goal {
	case "lose":
		target = maintenance - 500
	case "gain":
		target = maintenance + 500
	case "maintain":
		target = maintenance
	default:
		return 0, errors.New("goal must be 'lose', 'maintain' or 'gain'")
	}

	if target < MinimumTargetCalories {
		target = MinimumTargetCalories
	}
	return target, nil
}

// MacroTargets splits a calorie target into protein/carb/fat grams using a
// 30/40/30 energy split.
func MacroTargets(targetCalories float64) (proteinG, carbsG, fatG float64) {
	proteinG = targetCalories * 0.30 / KcalPerGramProtein
	carbsG = targetCalories * 0.40 / KcalPerGramCarbs
	fatG = targetCalories * 0.30 / KcalPerGramFat
	return proteinG, carbsG, fatG
}

// Round2 rounds to two decimals for API payloads.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
