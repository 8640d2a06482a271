package rpg

import "math"

// Equipment affects the smallest sensible weight increment.
type Equipment string

const (
	EquipmentBarbell    Equipment = "barbell"
	EquipmentDumbbell   Equipment = "dumbbell"
	EquipmentMachine    Equipment = "machine"
	EquipmentBodyweight Equipment = "bodyweight"
)

var weightIncrements = map[Equipment]float64{
	EquipmentBarbell:    2.5,
	EquipmentDumbbell:   2.0,
	EquipmentMachine:    5.0,
	EquipmentBodyweight: 1.0,
}

// Suggestion is a progressive-overload recommendation for the next set.
type Suggestion struct {
	WeightKg float64 `json:"suggested_weight_kg"`
	Reps     int     `json:"suggested_reps"`
	Reason   string  `json:"reason"`
}

// SuggestProgression recommends the next set's load from the last set
// and its perceived effort. Low RPE (<7) earns an increment, high RPE
// (>8.5) consolidates at the same weight.
func SuggestProgression(lastWeightKg float64, lastReps int, rpe *float64, equipment Equipment) Suggestion {
	increment, ok := weightIncrements[equipment]
	if !ok {
		increment = weightIncrements[EquipmentBarbell]
	}

	if rpe != nil && *rpe < 7 {
		return Suggestion{
			WeightKg: lastWeightKg + increment,
			Reps:     lastReps,
			Reason:   "low RPE, increase weight",
		}
	}
	if rpe != nil && *rpe > 8.5 {
		return Suggestion{
			WeightKg: lastWeightKg,
			Reps:     lastReps,
			Reason:   "high RPE, consolidate",
		}
	}
	return Suggestion{
		WeightKg: lastWeightKg + increment,
		Reps:     lastReps,
		Reason:   "progressive overload",
	}
}

// DeloadWeight is 85% of the current working weight, floored to a
// whole kilogram.
func DeloadWeight(currentWeightKg float64) float64 {
	return math.Floor(currentWeightKg * 0.85)
}

// Rest presets in seconds per training goal.
var restPresets = map[string]int{
	"strength":    180,
	"hypertrophy": 90,
	"endurance":   60,
	"cardio":      30,
}

// SuggestRestSeconds recommends rest time for a training goal, adjusted
// by the last set's RPE. Never below 30 seconds.
func SuggestRestSeconds(goal string, rpe *float64) int {
	rest, ok := restPresets[goal]
	if !ok {
		rest = 90
	}
	if rpe != nil {
		switch {
		case *rpe >= 9:
			rest += 30
		case *rpe <= 6:
			rest -= 15
		}
	}
	return max(rest, 30)
}
