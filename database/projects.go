package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GetOrCreateUserByEmail looks a user up by email, creating the row on first login.
func (s *Store) GetOrCreateUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email) VALUES (?, ?)`, id, email); err != nil {
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (s *Store) CreateClient(ctx context.Context, name, contactEmail string) (Client, error) {
	if strings.TrimSpace(name) == "" {
		return Client{}, errors.New("client name must not be empty")
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, contact_email) VALUES (?, ?, ?)`,
		id, strings.TrimSpace(name), contactEmail)
	if err != nil {
		return Client{}, fmt.Errorf("failed to insert client: %w", err)
	}
	return s.GetClient(ctx, id)
}

func (s *Store) GetClient(ctx context.Context, id string) (Client, error) {
	var c Client
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, contact_email, created_at FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.ContactEmail, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	if err != nil {
		return Client{}, fmt.Errorf("failed to query client: %w", err)
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, contact_email, created_at FROM clients ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.ContactEmail, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *Store) CreateProject(ctx context.Context, name, description string, clientID *string) (Project, error) {
	if strings.TrimSpace(name) == "" {
		return Project{}, errors.New("project name must not be empty")
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, client_id, name, description) VALUES (?, ?, ?, ?)`,
		id, clientID, strings.TrimSpace(name), description)
	if err != nil {
		return Project{}, fmt.Errorf("failed to insert project: %w", err)
	}
	return s.GetProject(ctx, id)
}

func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, client_id, name, description, created_at, updated_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.ClientID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("failed to query project: %w", err)
	}
	return p, nil
}

// ListProjectsForUser returns the projects the user is a member of.
func (s *Store) ListProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.client_id, p.name, p.description, p.created_at, p.updated_at
		FROM projects p
		JOIN project_memberships m ON m.project_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, id, name, description string) (Project, error) {
	if strings.TrimSpace(name) == "" {
		return Project{}, errors.New("project name must not be empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		strings.TrimSpace(name), description, id)
	if err != nil {
		return Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Project{}, ErrNotFound
	}
	return s.GetProject(ctx, id)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AddMembership(ctx context.Context, projectID, userID, role string) (Membership, error) {
	if _, ok := ValidRoles[role]; !ok {
		return Membership{}, fmt.Errorf("invalid role: %s", role)
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_memberships (id, project_id, user_id, role) VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, user_id) DO UPDATE SET role = excluded.role`,
		id, projectID, userID, role)
	if err != nil {
		return Membership{}, fmt.Errorf("failed to upsert membership: %w", err)
	}
	return s.GetMembership(ctx, projectID, userID)
}

// GetMembership is the row lookup behind every per-project authorization check.
func (s *Store) GetMembership(ctx context.Context, projectID, userID string) (Membership, error) {
	var m Membership
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, user_id, role FROM project_memberships WHERE project_id = ? AND user_id = ?`,
		projectID, userID).
		Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return Membership{}, ErrNotFound
	}
	if err != nil {
		return Membership{}, fmt.Errorf("failed to query membership: %w", err)
	}
	return m, nil
}

func (s *Store) ListMemberships(ctx context.Context, projectID string) ([]Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, user_id, role FROM project_memberships WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) RemoveMembership(ctx context.Context, projectID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM project_memberships WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
