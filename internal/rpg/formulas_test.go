package rpg

import (
	"math"
	"testing"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

// TestXPForLevel verifies the threshold curve floor(100 * n^1.5) with
// the level-1 threshold pinned to zero.
func TestXPForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{1, 0},
		{2, 282},  // floor(100 * 2.8284)
		{3, 519},  // floor(100 * 5.1961)
		{5, 1118}, // floor(100 * 11.1803)
		{10, 3162},
	}
	for _, tt := range tests {
		if got := XPForLevel(tt.level); got != tt.want {
			t.Errorf("XPForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
	if XPForLevel(0) != 0 {
		t.Error("XPForLevel(0) should be 0")
	}
}

// TestLevelFromXP verifies thresholds are inclusive: exactly reaching a
// threshold grants the level, one XP short does not.
func TestLevelFromXP(t *testing.T) {
	tests := []struct {
		totalXP   int
		wantLevel int
	}{
		{0, 1},
		{281, 1},
		{282, 2},
		{518, 2},
		{519, 3},
		{3162, 10},
	}
	for _, tt := range tests {
		if got := LevelFromXP(tt.totalXP); got.Level != tt.wantLevel {
			t.Errorf("LevelFromXP(%d).Level = %d, want %d", tt.totalXP, got.Level, tt.wantLevel)
		}
	}
}

// TestLevelFromXPMonotonic verifies more XP never lowers the level.
func TestLevelFromXPMonotonic(t *testing.T) {
	prev := 0
	for xp := 0; xp <= 20000; xp += 37 {
		level := LevelFromXP(xp).Level
		if level < prev {
			t.Fatalf("level dropped from %d to %d at xp=%d", prev, level, xp)
		}
		prev = level
	}
}

// TestLevelFromXPNegative verifies negative totals clamp to the floor
// of the curve instead of underflowing.
func TestLevelFromXPNegative(t *testing.T) {
	info := LevelFromXP(-50)
	if info.Level != 1 {
		t.Errorf("Level = %d, want 1", info.Level)
	}
	if info.TotalXP != 0 {
		t.Errorf("TotalXP = %d, want 0", info.TotalXP)
	}
}

// TestLevelFromXPMaxLevel verifies the cap holds for absurd totals.
func TestLevelFromXPMaxLevel(t *testing.T) {
	info := LevelFromXP(100_000_000)
	if info.Level != MaxLevel {
		t.Errorf("Level = %d, want %d", info.Level, MaxLevel)
	}
}

// TestEstimateOneRepMax verifies the Brzycki formula inside the 2..12
// rep band and the pass-through outside it.
func TestEstimateOneRepMax(t *testing.T) {
	tests := []struct {
		weight float64
		reps   int
		want   float64
	}{
		{100, 1, 100},                       // single: the weight is the max
		{100, 5, 100 / (1.0278 - 0.139)},    // ~112.51
		{60, 8, 60 / (1.0278 - 0.2224)},     // ~74.50
		{100, 13, 100},                      // beyond the band: unchanged
		{100, 0, 100},
	}
	for _, tt := range tests {
		got := EstimateOneRepMax(tt.weight, tt.reps)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("EstimateOneRepMax(%v, %d) = %.4f, want %.4f", tt.weight, tt.reps, got, tt.want)
		}
	}
}

// TestSetXP verifies the per-movement XP formulas with category
// multipliers applied.
func TestSetXP(t *testing.T) {
	tests := []struct {
		name       string
		metrics    models.SetMetrics
		multiplier float64
		want       int
	}{
		{"weighted floors", models.WeightedSet{WeightKg: 80, Reps: 5}, 1.2, 480},
		{"weighted truncates fraction", models.WeightedSet{WeightKg: 77.5, Reps: 3}, 1.0, 232},
		{"reps rounds", models.RepsSet{Reps: 10}, 1.0, 50},
		{"reps with multiplier", models.RepsSet{Reps: 12}, 1.3, 78},
		{"timed rounds", models.TimedSet{Seconds: 60}, 1.1, 66},
		{"timed cardio", models.TimedSet{Seconds: 300}, 1.0, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SetXP(tt.metrics, tt.multiplier); got != tt.want {
				t.Errorf("SetXP = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestSetXPNilMetrics verifies unknown metric variants award nothing.
func TestSetXPNilMetrics(t *testing.T) {
	if got := SetXP(nil, 1.0); got != 0 {
		t.Errorf("SetXP(nil) = %d, want 0", got)
	}
}

// TestIsPersonalRecord verifies first attempts always count and ties
// never do.
func TestIsPersonalRecord(t *testing.T) {
	prior := 100.0
	tests := []struct {
		name    string
		current float64
		best    *float64
		want    bool
	}{
		{"no prior", 60, nil, true},
		{"beats prior", 105, &prior, true},
		{"tie is not a record", 100, &prior, false},
		{"below prior", 95, &prior, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPersonalRecord(tt.current, tt.best); got != tt.want {
				t.Errorf("IsPersonalRecord(%v, %v) = %v, want %v", tt.current, tt.best, got, tt.want)
			}
		})
	}
}

// TestShouldDeload verifies the two-drops-in-three-sessions rule and
// that short histories never trigger.
func TestShouldDeload(t *testing.T) {
	tests := []struct {
		name    string
		volumes []float64
		want    bool
	}{
		{"too little history", []float64{3000, 2500}, false},
		{"two consecutive drops", []float64{3000, 2700, 2400}, true},
		{"rising volume", []float64{2400, 2700, 3000}, false},
		{"single dip recovers", []float64{3000, 2700, 3100}, false},
		{"drops late in longer history", []float64{2000, 3000, 2800, 2600}, true},
		{"single drop then recovery", []float64{3000, 2000, 2500, 2600}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldDeload(tt.volumes); got != tt.want {
				t.Errorf("ShouldDeload(%v) = %v, want %v", tt.volumes, got, tt.want)
			}
		})
	}
}
