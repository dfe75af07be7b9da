package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rcjk/internal/naming"
	"rcjk/internal/services"
)

const projectColumns = "id, name, slug, repo_url, repo_branch, export_enabled, export_running, export_started_at, export_completed_at, created_at, updated_at, updated_by, editors_history"

const defaultBranch = "master"

func scanProject(scanner rowScanner) (*Project, error) {
	var (
		p          Project
		enabled    int
		running    int
		started    sql.NullString
		completed  sql.NullString
		createdRaw string
		updatedRaw string
		updatedBy  sql.NullInt64
		editors    string
	)
	if err := scanner.Scan(
		&p.ID, &p.Name, &p.Slug, &p.RepoURL, &p.RepoBranch,
		&enabled, &running, &started, &completed,
		&createdRaw, &updatedRaw, &updatedBy, &editors,
	); err != nil {
		return nil, err
	}
	p.ExportEnabled = enabled != 0
	p.ExportRunning = running != 0
	p.ExportStartedAt = timeFromNull(started)
	p.ExportCompletedAt = timeFromNull(completed)
	p.CreatedAt, _ = parseTimeString(createdRaw)
	p.UpdatedAt, _ = parseTimeString(updatedRaw)
	p.UpdatedBy = idFromNull(updatedBy)
	p.Editors = decodeEditors(editors)
	return &p, nil
}

// CreateProject inserts a project. The slug is derived from name.
func (s *Store) CreateProject(ctx context.Context, name, repoURL, branch string, user *User) (*Project, error) {
	name = strings.TrimSpace(name)
	repoURL = strings.TrimSpace(repoURL)
	slug := naming.Slugify(name)
	switch {
	case slug == "":
		return nil, &services.ValidationError{Field: "name", Message: "must contain at least one letter or digit"}
	case repoURL == "":
		return nil, &services.ValidationError{Field: "repo_url", Message: "must not be empty"}
	}
	if branch = strings.TrimSpace(branch); branch == "" {
		branch = defaultBranch
	}

	p := &Project{Name: name, Slug: slug, RepoURL: repoURL, RepoBranch: branch}
	p.ExportEnabled = true
	p.touch(user, s.timestamp())
	editors, err := encodeEditors(p.Editors)
	if err != nil {
		return nil, fmt.Errorf("encode editors: %w", err)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO projects (name, slug, repo_url, repo_branch, export_enabled, created_at, updated_at, updated_by, editors_history)
         VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?)`,
		p.Name, p.Slug, p.RepoURL, p.RepoBranch,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt), nullableID(p.UpdatedBy), editors,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &services.DuplicateNameError{Kind: "project", Name: name}
		}
		return nil, fmt.Errorf("insert project: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return p, nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("project", fmt.Sprint(id))
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// GetProjectBySlug fetches a project by slug.
func (s *Store) GetProjectBySlug(ctx context.Context, slug string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = ?`, strings.TrimSpace(slug))
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("project", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListProjects returns every project ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SetProjectExportEnabled toggles scheduled exports for a project.
func (s *Store) SetProjectExportEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.execWithRetry(ctx, `UPDATE projects SET export_enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("project", fmt.Sprint(id))
	}
	return nil
}

// AddDesigner attaches a user to a project. Adding an existing designer is a no-op.
func (s *Store) AddDesigner(ctx context.Context, projectID, userID int64) error {
	if _, err := s.execWithRetry(ctx,
		`INSERT OR IGNORE INTO project_designers (project_id, user_id) VALUES (?, ?)`, projectID, userID,
	); err != nil {
		return fmt.Errorf("add designer: %w", err)
	}
	return nil
}

// RemoveDesigner detaches a user from a project.
func (s *Store) RemoveDesigner(ctx context.Context, projectID, userID int64) error {
	if _, err := s.execWithRetry(ctx,
		`DELETE FROM project_designers WHERE project_id = ? AND user_id = ?`, projectID, userID,
	); err != nil {
		return fmt.Errorf("remove designer: %w", err)
	}
	return nil
}

// ListDesigners returns the designers of a project ordered by username.
func (s *Store) ListDesigners(ctx context.Context, projectID int64) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.first_name, u.last_name, u.email, u.is_active, u.created_at
         FROM users u JOIN project_designers d ON d.user_id = u.id
         WHERE d.project_id = ? ORDER BY u.username`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list designers: %w", err)
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
