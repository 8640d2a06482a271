package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

// PutExercise upserts a catalog entry by id.
func (s *Store) PutExercise(ctx context.Context, e models.ExerciseDefinition) error {
	if e.ID == "" {
		return fmt.Errorf("exercise missing id: %w", models.ErrValidation)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exercises (id, name, category, movement, xp_multiplier)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   category = excluded.category,
		   movement = excluded.movement,
		   xp_multiplier = excluded.xp_multiplier`,
		e.ID, e.Name, e.Category, e.Movement, e.XPMultiplier)
	if err != nil {
		return fmt.Errorf("upserting exercise: %w", err)
	}
	return nil
}

// GetExercise reads a catalog entry by id. Returns nil when absent.
func (s *Store) GetExercise(ctx context.Context, id string) (*models.ExerciseDefinition, error) {
	var e models.ExerciseDefinition
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, movement, xp_multiplier FROM exercises WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Category, &e.Movement, &e.XPMultiplier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning exercise: %w", err)
	}
	return &e, nil
}

// ListExercises returns the whole catalog ordered by name.
func (s *Store) ListExercises(ctx context.Context) ([]models.ExerciseDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, movement, xp_multiplier FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	defer rows.Close()

	var out []models.ExerciseDefinition
	for rows.Next() {
		var e models.ExerciseDefinition
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.Movement, &e.XPMultiplier); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SeedExercises inserts catalog entries that are not present yet.
// Existing entries are left untouched so user data never changes under
// a reseed.
func (s *Store) SeedExercises(ctx context.Context, defs []models.ExerciseDefinition) (int, error) {
	inserted := 0
	for _, e := range defs {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO exercises (id, name, category, movement, xp_multiplier)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT DO NOTHING`,
			e.ID, e.Name, e.Category, e.Movement, e.XPMultiplier)
		if err != nil {
			return inserted, fmt.Errorf("seeding exercise %s: %w", e.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}
