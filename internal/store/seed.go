package store

import "github.com/FloScythe/fitness-rpg/internal/models"

// CategoryMultipliers maps each category to its XP multiplier.
var CategoryMultipliers = map[models.Category]float64{
	models.CategoryChest:     1.2,
	models.CategoryBack:      1.3,
	models.CategoryLegs:      1.5,
	models.CategoryShoulders: 1.1,
	models.CategoryArms:      1.0,
	models.CategoryCore:      1.1,
	models.CategoryCardio:    1.0,
}

// DefaultCatalog is the compact exercise catalog seeded on first run.
func DefaultCatalog() []models.ExerciseDefinition {
	type entry struct {
		id, name string
		cat      models.Category
		mov      models.MovementType
	}
	entries := []entry{
		{"bench-press", "Bench Press", models.CategoryChest, models.MovementWeighted},
		{"incline-press", "Incline Press", models.CategoryChest, models.MovementWeighted},
		{"push-ups", "Push-ups", models.CategoryChest, models.MovementReps},
		{"dips", "Dips", models.CategoryChest, models.MovementReps},
		{"deadlift", "Deadlift", models.CategoryBack, models.MovementWeighted},
		{"barbell-row", "Barbell Row", models.CategoryBack, models.MovementWeighted},
		{"pull-ups", "Pull-ups", models.CategoryBack, models.MovementReps},
		{"squat", "Squat", models.CategoryLegs, models.MovementWeighted},
		{"leg-press", "Leg Press", models.CategoryLegs, models.MovementWeighted},
		{"lunges", "Lunges", models.CategoryLegs, models.MovementReps},
		{"overhead-press", "Overhead Press", models.CategoryShoulders, models.MovementWeighted},
		{"lateral-raise", "Lateral Raise", models.CategoryShoulders, models.MovementWeighted},
		{"bicep-curl", "Bicep Curl", models.CategoryArms, models.MovementWeighted},
		{"tricep-extension", "Tricep Extension", models.CategoryArms, models.MovementWeighted},
		{"plank", "Plank", models.CategoryCore, models.MovementTimed},
		{"crunches", "Crunches", models.CategoryCore, models.MovementReps},
		{"leg-raises", "Leg Raises", models.CategoryCore, models.MovementReps},
		{"running", "Running", models.CategoryCardio, models.MovementTimed},
		{"cycling", "Cycling", models.CategoryCardio, models.MovementTimed},
		{"burpees", "Burpees", models.CategoryCardio, models.MovementReps},
	}

	defs := make([]models.ExerciseDefinition, 0, len(entries))
	for _, e := range entries {
		defs = append(defs, models.ExerciseDefinition{
			ID:           e.id,
			Name:         e.name,
			Category:     e.cat,
			Movement:     e.mov,
			XPMultiplier: CategoryMultipliers[e.cat],
		})
	}
	return defs
}
