package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

func (s *Store) CreateTimeEntry(ctx context.Context, e TimeEntry) (TimeEntry, error) {
	if _, ok := ValidTimeCategories[e.Category]; !ok {
		return TimeEntry{}, fmt.Errorf("invalid time category: %s", e.Category)
	}
	if e.DurationMinutes <= 0 {
		return TimeEntry{}, errors.New("duration must be positive")
	}
	if e.Date == "" {
		return TimeEntry{}, errors.New("date is required")
	}
	if e.TaskID != nil {
		task, err := s.GetTask(ctx, *e.TaskID)
		if err != nil {
			return TimeEntry{}, err
		}
		if task.ProjectID != e.ProjectID {
			return TimeEntry{}, fmt.Errorf("task %s belongs to a different project", *e.TaskID)
		}
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, project_id, task_id, user_id, category, duration_minutes, entry_date, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.ProjectID, e.TaskID, e.UserID, e.Category, e.DurationMinutes, e.Date, e.Notes)
	if err != nil {
		return TimeEntry{}, fmt.Errorf("failed to insert time entry: %w", err)
	}
	return s.GetTimeEntry(ctx, id)
}

func (s *Store) GetTimeEntry(ctx context.Context, id string) (TimeEntry, error) {
	var e TimeEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, task_id, user_id, category, duration_minutes, entry_date, notes
		FROM time_entries WHERE id = ?`, id).
		Scan(&e.ID, &e.ProjectID, &e.TaskID, &e.UserID, &e.Category, &e.DurationMinutes, &e.Date, &e.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return TimeEntry{}, ErrNotFound
	}
	if err != nil {
		return TimeEntry{}, fmt.Errorf("failed to query time entry: %w", err)
	}
	return e, nil
}

func (s *Store) ListTimeEntries(ctx context.Context, projectID string) ([]TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, task_id, user_id, category, duration_minutes, entry_date, notes
		FROM time_entries WHERE project_id = ? ORDER BY entry_date, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		var e TimeEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.TaskID, &e.UserID, &e.Category,
			&e.DurationMinutes, &e.Date, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) UpdateTimeEntry(ctx context.Context, id string, durationMinutes *int, category, date, notes *string) (TimeEntry, error) {
	current, err := s.GetTimeEntry(ctx, id)
	if err != nil {
		return TimeEntry{}, err
	}
	if durationMinutes != nil {
		if *durationMinutes <= 0 {
			return TimeEntry{}, errors.New("duration must be positive")
		}
		current.DurationMinutes = *durationMinutes
	}
	if category != nil {
		if _, ok := ValidTimeCategories[*category]; !ok {
			return TimeEntry{}, fmt.Errorf("invalid time category: %s", *category)
		}
		current.Category = *category
	}
	if date != nil && *date != "" {
		current.Date = *date
	}
	if notes != nil {
		current.Notes = *notes
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE time_entries SET category = ?, duration_minutes = ?, entry_date = ?, notes = ? WHERE id = ?`,
		current.Category, current.DurationMinutes, current.Date, current.Notes, id)
	if err != nil {
		return TimeEntry{}, fmt.Errorf("failed to update time entry: %w", err)
	}
	return s.GetTimeEntry(ctx, id)
}

func (s *Store) DeleteTimeEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
