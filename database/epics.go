package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func (s *Store) CreateEpic(ctx context.Context, projectID, title string) (Epic, error) {
	if strings.TrimSpace(title) == "" {
		return Epic{}, errors.New("epic title must not be empty")
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO epics (id, project_id, title) VALUES (?, ?, ?)`,
		id, projectID, strings.TrimSpace(title))
	if err != nil {
		return Epic{}, fmt.Errorf("failed to insert epic: %w", err)
	}
	return s.GetEpic(ctx, id)
}

func (s *Store) GetEpic(ctx context.Context, id string) (Epic, error) {
	var e Epic
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, title, status, created_at, updated_at FROM epics WHERE id = ?`, id).
		Scan(&e.ID, &e.ProjectID, &e.Title, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Epic{}, ErrNotFound
	}
	if err != nil {
		return Epic{}, fmt.Errorf("failed to query epic: %w", err)
	}
	return e, nil
}

func (s *Store) ListEpics(ctx context.Context, projectID string) ([]Epic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, title, status, created_at, updated_at FROM epics WHERE project_id = ? ORDER BY created_at`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list epics: %w", err)
	}
	defer rows.Close()

	var epics []Epic
	for rows.Next() {
		var e Epic
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Title, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan epic: %w", err)
		}
		epics = append(epics, e)
	}
	return epics, rows.Err()
}

func (s *Store) UpdateEpic(ctx context.Context, id string, title, status *string) (Epic, error) {
	current, err := s.GetEpic(ctx, id)
	if err != nil {
		return Epic{}, err
	}
	if title != nil && strings.TrimSpace(*title) != "" {
		current.Title = strings.TrimSpace(*title)
	}
	if status != nil {
		if _, ok := ValidEpicStatuses[*status]; !ok {
			return Epic{}, fmt.Errorf("invalid epic status: %s", *status)
		}
		current.Status = *status
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE epics SET title = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		current.Title, current.Status, id)
	if err != nil {
		return Epic{}, fmt.Errorf("failed to update epic: %w", err)
	}
	return s.GetEpic(ctx, id)
}

// DeleteEpic removes an epic; tasks keep living and merely lose the grouping.
func (s *Store) DeleteEpic(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET epic_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE epic_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach epic tasks: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM epics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete epic: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
