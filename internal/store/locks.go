package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rcjk/internal/glif"
	"rcjk/internal/services"
)

func requireEditor(user *User) error {
	if !user.CanEdit() {
		return &services.ValidationError{Field: "user", Message: "must be an active, authenticated user"}
	}
	return nil
}

// Lock acquires the editing lock on a glif for user. The check and the set
// happen in one conditional update that never touches updated_at. A glif
// locked by anyone, including user, fails with AlreadyLockedError.
func (s *Store) Lock(ctx context.Context, kind glif.Kind, id int64, user *User) (*Glif, error) {
	if err := requireEditor(user); err != nil {
		return nil, err
	}
	table, err := glifTableFor(kind)
	if err != nil {
		return nil, err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE `+table+` SET is_locked = 1, locked_by = ?, locked_at = ? WHERE id = ? AND is_locked = 0`,
		user.ID, formatTime(s.timestamp()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	g, err := s.GetGlif(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return g, &services.AlreadyLockedError{Kind: kind.Label(), Name: g.Name, LockedBy: s.usernameOf(ctx, g.LockedBy)}
	}
	return g, nil
}

// Unlock releases the lock on a glif. Without force only the holder may
// release it; unlocking an unlocked glif succeeds. force skips the user
// checks and is reserved for the stale-lock sweep.
func (s *Store) Unlock(ctx context.Context, kind glif.Kind, id int64, user *User, force bool) (*Glif, error) {
	if !force {
		if err := requireEditor(user); err != nil {
			return nil, err
		}
	}
	table, err := glifTableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `UPDATE ` + table + ` SET is_locked = 0, locked_by = NULL, locked_at = NULL WHERE id = ?`
	args := []any{id}
	if !force {
		query += ` AND (is_locked = 0 OR locked_by = ?)`
		args = append(args, user.ID)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unlock %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	g, err := s.GetGlif(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var username string
		if user != nil {
			username = user.Username
		}
		return g, &services.NotLockedByUserError{Kind: kind.Label(), Name: g.Name, Username: username}
	}
	return g, nil
}

// ListStaleLocks returns the locked glifs of kind whose last edit and lock
// acquisition are both older than cutoff, grouped by font then name.
func (s *Store) ListStaleLocks(ctx context.Context, kind glif.Kind, cutoff time.Time) ([]*Glif, error) {
	table, err := glifTableFor(kind)
	if err != nil {
		return nil, err
	}
	stamp := formatTime(cutoff)
	return s.queryGlifs(ctx, kind,
		`SELECT `+glifColumns+` FROM `+table+`
         WHERE is_locked = 1 AND updated_at < ? AND (locked_at IS NULL OR locked_at < ?)
         ORDER BY font_id, name`, stamp, stamp)
}

func (s *Store) usernameOf(ctx context.Context, id *int64) string {
	if id == nil {
		return ""
	}
	var name sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, *id).Scan(&name); err != nil {
		return ""
	}
	return name.String
}
