package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/FloScythe/fitness-rpg/internal/models"
)

// PutUser upserts the user profile by id.
func (s *Store) PutUser(ctx context.Context, u models.User) error {
	if u.ID == "" {
		return fmt.Errorf("user missing id: %w", models.ErrValidation)
	}
	var lastSync any
	if u.LastSyncAt != nil {
		lastSync = u.LastSyncAt.UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user (id, username, total_xp, level, last_sync_at, offline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   username = excluded.username,
		   total_xp = excluded.total_xp,
		   level = excluded.level,
		   last_sync_at = excluded.last_sync_at,
		   offline = excluded.offline`,
		u.ID, u.Username, u.TotalXP, u.Level, lastSync, u.Offline, u.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

// GetUser reads a profile by id. Returns nil when absent.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, total_xp, level, last_sync_at, offline, created_at
		 FROM user WHERE id = ?`, id))
}

// CurrentUser returns the single local profile, or nil when the app has
// never been launched.
func (s *Store) CurrentUser(ctx context.Context) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, total_xp, level, last_sync_at, offline, created_at
		 FROM user ORDER BY created_at LIMIT 1`))
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var lastSync sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.TotalXP, &u.Level, &lastSync, &u.Offline, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	if lastSync.Valid {
		t := lastSync.Time
		u.LastSyncAt = &t
	}
	return &u, nil
}

// EnsureUser returns the local profile, creating a default one on first
// launch.
func (s *Store) EnsureUser(ctx context.Context, username string) (*models.User, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	fresh := models.User{
		ID:        models.NewID(),
		Username:  username,
		TotalXP:   0,
		Level:     1,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.PutUser(ctx, fresh); err != nil {
		return nil, err
	}
	s.log.Info("created local profile", "user_id", fresh.ID, "username", username)
	return &fresh, nil
}
