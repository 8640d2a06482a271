package rpg

import "fmt"

// Achievement is an unlockable milestone. Detection is a pure report
// over store aggregates; nothing here mutates state.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
}

var workoutMilestones = map[int]Achievement{
	1:  {ID: "first-workout", Title: "First Steps", Description: "Complete your first workout", Rarity: "common"},
	10: {ID: "ten-workouts", Title: "Dedication", Description: "Complete 10 workouts", Rarity: "uncommon"},
	50: {ID: "fifty-workouts", Title: "Athlete", Description: "Complete 50 workouts", Rarity: "rare"},
}

var xpMilestones = []int{1000, 5000, 10000, 25000, 50000, 100000}

// CheckAchievements returns the milestones newly reached for the given
// totals. alreadyUnlocked filters out milestones reported earlier.
func CheckAchievements(totalWorkouts, totalXP int, alreadyUnlocked func(id string) bool) []Achievement {
	var unlocked []Achievement

	if a, ok := workoutMilestones[totalWorkouts]; ok && !alreadyUnlocked(a.ID) {
		unlocked = append(unlocked, a)
	}

	for _, milestone := range xpMilestones {
		if totalXP < milestone {
			break
		}
		id := fmt.Sprintf("xp-%d", milestone)
		if alreadyUnlocked(id) {
			continue
		}
		rarity := "rare"
		switch {
		case milestone >= 50000:
			rarity = "legendary"
		case milestone >= 10000:
			rarity = "epic"
		}
		unlocked = append(unlocked, Achievement{
			ID:          id,
			Title:       fmt.Sprintf("%d XP", milestone),
			Description: fmt.Sprintf("Earn %d XP in total", milestone),
			Rarity:      rarity,
		})
	}

	return unlocked
}
