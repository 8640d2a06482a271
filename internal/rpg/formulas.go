// Package rpg holds the pure derived-state computations of the game
// layer: XP, levels, estimated one-rep-max, personal-record detection
// and coaching heuristics. Nothing in this package performs I/O.
package rpg

import (
	"math"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

const (
	// MaxLevel caps progression.
	MaxLevel = 100

	xpBase     = 100
	xpExponent = 1.5
)

// XPForLevel returns the total XP required to reach a level.
// threshold(n) = floor(100 * n^1.5), threshold(1) = 0.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(math.Floor(xpBase * math.Pow(float64(level), xpExponent)))
}

// LevelInfo describes where a given XP total sits on the level curve.
type LevelInfo struct {
	Level            int     `json:"level"`
	CurrentXPInLevel int     `json:"current_xp_in_level"`
	XPForNextLevel   int     `json:"xp_for_next_level"`
	TotalXP          int     `json:"total_xp"`
	Progress         float64 `json:"progress_percent"`
}

// LevelFromXP finds the greatest level whose threshold the XP total has
// reached, plus progress toward the next one.
func LevelFromXP(totalXP int) LevelInfo {
	if totalXP < 0 {
		totalXP = 0
	}
	level := 1
	for level < MaxLevel && totalXP >= XPForLevel(level+1) {
		level++
	}

	current := XPForLevel(level)
	next := XPForLevel(level + 1)
	inLevel := totalXP - current
	needed := next - current

	progress := 100.0
	if needed > 0 {
		progress = math.Min(float64(inLevel)/float64(needed)*100, 100)
	}

	return LevelInfo{
		Level:            level,
		CurrentXPInLevel: inLevel,
		XPForNextLevel:   needed,
		TotalXP:          totalXP,
		Progress:         progress,
	}
}

// EstimateOneRepMax applies the Brzycki formula
// weight / (1.0278 - 0.0278*reps). Outside the 2..12 rep band the
// formula is unreliable and the weight is returned unchanged.
func EstimateOneRepMax(weightKg float64, reps int) float64 {
	if reps <= 1 || reps > 12 {
		return weightKg
	}
	return weightKg / (1.0278 - 0.0278*float64(reps))
}

// SetVolume is weight times reps, in kg.
func SetVolume(weightKg float64, reps int) float64 {
	return weightKg * float64(reps)
}

// SetXP computes the XP a set awards. Each movement type has its own
// formula:
//
//	weighted:  floor(weight*reps * multiplier)
//	reps-only: round(reps * 5 * multiplier)
//	timed:     round(seconds * multiplier)
func SetXP(m models.SetMetrics, multiplier float64) int {
	switch v := m.(type) {
	case models.WeightedSet:
		return int(math.Floor(SetVolume(v.WeightKg, v.Reps) * multiplier))
	case models.RepsSet:
		return int(math.Round(float64(v.Reps) * 5 * multiplier))
	case models.TimedSet:
		return int(math.Round(float64(v.Seconds) * multiplier))
	}
	return 0
}

// IsPersonalRecord reports whether a one-rep-max beats the best prior
// value. A first attempt (no prior) is always a record; ties are not.
func IsPersonalRecord(currentOneRepMax float64, bestPrior *float64) bool {
	if bestPrior == nil {
		return true
	}
	return currentOneRepMax > *bestPrior
}

// ShouldDeload reports whether training volume is trending down.
// Volumes are session totals in chronological order; a deload is
// recommended once volume dropped between at least two consecutive
// session pairs among the most recent three sessions.
func ShouldDeload(recentVolumes []float64) bool {
	if len(recentVolumes) < 3 {
		return false
	}
	// Each of the most recent three sessions is compared against its
	// immediate predecessor.
	start := len(recentVolumes) - 3
	drops := 0
	for i := start; i < len(recentVolumes); i++ {
		if i > 0 && recentVolumes[i] < recentVolumes[i-1] {
			drops++
		}
	}
	return drops >= 2
}
