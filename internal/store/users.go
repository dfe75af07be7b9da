package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rcjk/internal/services"
)

const userColumns = "id, username, first_name, last_name, email, is_active, created_at"

func scanUser(scanner rowScanner) (*User, error) {
	var (
		user       User
		first      sql.NullString
		last       sql.NullString
		email      sql.NullString
		active     int
		createdRaw string
	)
	if err := scanner.Scan(&user.ID, &user.Username, &first, &last, &email, &active, &createdRaw); err != nil {
		return nil, err
	}
	user.FirstName = first.String
	user.LastName = last.String
	user.Email = email.String
	user.IsActive = active != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		user.CreatedAt = created
	}
	return &user, nil
}

// CreateUser inserts an active user.
func (s *Store) CreateUser(ctx context.Context, username, firstName, lastName, email string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &services.ValidationError{Field: "username", Message: "must not be empty"}
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO users (username, first_name, last_name, email, is_active, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
		username, nullableString(firstName), nullableString(lastName), nullableString(email), formatTime(s.timestamp()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &services.DuplicateNameError{Kind: "user", Name: username}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", fmt.Sprint(id))
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUserByUsername fetches a user by login name.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, strings.TrimSpace(username))
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", username)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns every user ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetUserActive enables or disables a user.
func (s *Store) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := s.execWithRetry(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("user", fmt.Sprint(id))
	}
	return nil
}

func notFound(kind, key string) error {
	return services.Wrap(services.ErrNotFound, "store", "lookup", fmt.Sprintf("%s %s", kind, key), nil)
}
