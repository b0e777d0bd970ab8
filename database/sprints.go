package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const sprintColumns = `id, project_id, name, status, start_date, end_date, sort_index, created_at, updated_at`

func scanSprint(scan func(...any) error) (Sprint, error) {
	var sp Sprint
	err := scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.Status, &sp.StartDate, &sp.EndDate,
		&sp.SortIndex, &sp.CreatedAt, &sp.UpdatedAt)
	return sp, err
}

func (s *Store) CreateSprint(ctx context.Context, sp Sprint) (Sprint, error) {
	if strings.TrimSpace(sp.Name) == "" {
		return Sprint{}, errors.New("sprint name must not be empty")
	}
	if sp.Status == "" {
		sp.Status = SprintStatusPlanned
	}
	if _, ok := ValidSprintStatuses[sp.Status]; !ok {
		return Sprint{}, fmt.Errorf("invalid sprint status: %s", sp.Status)
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sprints (id, project_id, name, status, start_date, end_date, sort_index)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, sp.ProjectID, strings.TrimSpace(sp.Name), sp.Status, sp.StartDate, sp.EndDate, sp.SortIndex)
	if err != nil {
		return Sprint{}, fmt.Errorf("failed to insert sprint: %w", err)
	}
	return s.GetSprint(ctx, id)
}

func (s *Store) GetSprint(ctx context.Context, id string) (Sprint, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM sprints WHERE id = ?`, sprintColumns), id)
	sp, err := scanSprint(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Sprint{}, ErrNotFound
	}
	if err != nil {
		return Sprint{}, fmt.Errorf("failed to query sprint: %w", err)
	}
	return sp, nil
}

func (s *Store) ListSprints(ctx context.Context, projectID string) ([]Sprint, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM sprints WHERE project_id = ? ORDER BY sort_index, created_at`, sprintColumns),
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	var sprints []Sprint
	for rows.Next() {
		sp, err := scanSprint(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sprint: %w", err)
		}
		sprints = append(sprints, sp)
	}
	return sprints, rows.Err()
}

func (s *Store) UpdateSprint(ctx context.Context, id string, name, status *string, startDate, endDate *string, sortIndex *int) (Sprint, error) {
	current, err := s.GetSprint(ctx, id)
	if err != nil {
		return Sprint{}, err
	}
	if name != nil && strings.TrimSpace(*name) != "" {
		current.Name = strings.TrimSpace(*name)
	}
	if status != nil {
		if _, ok := ValidSprintStatuses[*status]; !ok {
			return Sprint{}, fmt.Errorf("invalid sprint status: %s", *status)
		}
		current.Status = *status
	}
	if startDate != nil {
		current.StartDate = startDate
	}
	if endDate != nil {
		current.EndDate = endDate
	}
	if sortIndex != nil {
		current.SortIndex = *sortIndex
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE sprints SET name = ?, status = ?, start_date = ?, end_date = ?, sort_index = ?,
			updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		current.Name, current.Status, current.StartDate, current.EndDate, current.SortIndex, id)
	if err != nil {
		return Sprint{}, fmt.Errorf("failed to update sprint: %w", err)
	}
	return s.GetSprint(ctx, id)
}

// ActivateSprint marks a sprint active and demotes any other active sprint of
// the same project back to planned. Two sequential updates, no transaction;
// the convention "at most one active" is restored by the demotion pass.
func (s *Store) ActivateSprint(ctx context.Context, id string) (Sprint, error) {
	sp, err := s.GetSprint(ctx, id)
	if err != nil {
		return Sprint{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE sprints SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE project_id = ? AND status = ? AND id != ?`,
		SprintStatusPlanned, sp.ProjectID, SprintStatusActive, id)
	if err != nil {
		return Sprint{}, fmt.Errorf("failed to demote active sprints: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE sprints SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		SprintStatusActive, id)
	if err != nil {
		return Sprint{}, fmt.Errorf("failed to activate sprint: %w", err)
	}
	return s.GetSprint(ctx, id)
}

// DeleteSprint removes a sprint after sending its tasks back to the backlog.
func (s *Store) DeleteSprint(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET sprint_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE sprint_id = ?`, id); err != nil {
		return fmt.Errorf("failed to unschedule sprint tasks: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sprints WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sprint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
