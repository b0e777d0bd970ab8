package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const taskColumns = `id, project_id, epic_id, sprint_id, title, description, type, status,
	priority, estimate_bucket, is_client_visible, created_at, updated_at`

// TaskFilter narrows ListTasks. Zero values mean "no filter"; SprintID
// filters on exact sprint membership when set.
type TaskFilter struct {
	SprintID        *string
	Status          string
	EpicID          string
	ClientVisibleOnly bool
}

// TaskUpdate carries targeted field updates; nil fields are left untouched.
type TaskUpdate struct {
	Title           *string
	Description     *string
	Type            *string
	Status          *string
	Priority        *string
	EpicID          *string
	EstimateBucket  *string
	IsClientVisible *bool
}

func scanTask(scan func(...any) error) (Task, error) {
	var t Task
	var visible int
	err := scan(&t.ID, &t.ProjectID, &t.EpicID, &t.SprintID, &t.Title, &t.Description,
		&t.Type, &t.Status, &t.Priority, &t.EstimateBucket, &visible, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Task{}, err
	}
	t.IsClientVisible = visible != 0
	return t, nil
}

// CreateTask inserts a task. A sprint or epic reference must belong to the
// same project as the task itself.
func (s *Store) CreateTask(ctx context.Context, t Task) (Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return Task{}, errors.New("task title must not be empty")
	}
	if _, ok := ValidTaskTypes[t.Type]; !ok {
		t.Type = TaskTypeNewFeature
	}
	if _, ok := ValidTaskStatuses[t.Status]; !ok {
		t.Status = TaskStatusTodo
	}
	if _, ok := ValidTaskPriorities[t.Priority]; !ok {
		t.Priority = TaskPriorityMedium
	}
	if t.EstimateBucket != nil {
		if _, ok := ValidEstimateBuckets[*t.EstimateBucket]; !ok {
			return Task{}, fmt.Errorf("invalid estimate bucket: %s", *t.EstimateBucket)
		}
	}
	if t.SprintID != nil {
		if err := s.checkSprintProject(ctx, *t.SprintID, t.ProjectID); err != nil {
			return Task{}, err
		}
	}
	if t.EpicID != nil {
		if err := s.checkEpicProject(ctx, *t.EpicID, t.ProjectID); err != nil {
			return Task{}, err
		}
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, epic_id, sprint_id, title, description, type, status, priority, estimate_bucket, is_client_visible)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.ProjectID, t.EpicID, t.SprintID, strings.TrimSpace(t.Title), t.Description,
		t.Type, t.Status, t.Priority, t.EstimateBucket, boolToInt(t.IsClientVisible))
	if err != nil {
		return Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return s.GetTask(ctx, id)
}

func (s *Store) GetTask(ctx context.Context, id string) (Task, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM tasks WHERE id = ?`, taskColumns), id)
	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("failed to query task: %w", err)
	}
	return t, nil
}

// ListTasks returns a project's tasks in insertion order, optionally narrowed
// by sprint, status or epic.
func (s *Store) ListTasks(ctx context.Context, projectID string, filter TaskFilter) ([]Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE project_id = ?`, taskColumns)
	args := []any{projectID}

	if filter.SprintID != nil {
		query += ` AND sprint_id = ?`
		args = append(args, *filter.SprintID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.EpicID != "" {
		query += ` AND epic_id = ?`
		args = append(args, filter.EpicID)
	}
	if filter.ClientVisibleOnly {
		query += ` AND is_client_visible = 1`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask applies targeted field updates in a single UPDATE.
func (s *Store) UpdateTask(ctx context.Context, id string, u TaskUpdate) (Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}

	if u.Title != nil && strings.TrimSpace(*u.Title) != "" {
		current.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		current.Description = *u.Description
	}
	if u.Type != nil {
		if _, ok := ValidTaskTypes[*u.Type]; !ok {
			return Task{}, fmt.Errorf("invalid task type: %s", *u.Type)
		}
		current.Type = *u.Type
	}
	if u.Status != nil {
		if _, ok := ValidTaskStatuses[*u.Status]; !ok {
			return Task{}, fmt.Errorf("invalid task status: %s", *u.Status)
		}
		current.Status = *u.Status
	}
	if u.Priority != nil {
		if _, ok := ValidTaskPriorities[*u.Priority]; !ok {
			return Task{}, fmt.Errorf("invalid task priority: %s", *u.Priority)
		}
		current.Priority = *u.Priority
	}
	if u.EpicID != nil {
		if *u.EpicID == "" {
			current.EpicID = nil
		} else {
			if err := s.checkEpicProject(ctx, *u.EpicID, current.ProjectID); err != nil {
				return Task{}, err
			}
			current.EpicID = u.EpicID
		}
	}
	if u.EstimateBucket != nil {
		if *u.EstimateBucket == "" {
			current.EstimateBucket = nil
		} else {
			if _, ok := ValidEstimateBuckets[*u.EstimateBucket]; !ok {
				return Task{}, fmt.Errorf("invalid estimate bucket: %s", *u.EstimateBucket)
			}
			current.EstimateBucket = u.EstimateBucket
		}
	}
	if u.IsClientVisible != nil {
		current.IsClientVisible = *u.IsClientVisible
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, type = ?, status = ?, priority = ?,
			epic_id = ?, estimate_bucket = ?, is_client_visible = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		current.Title, current.Description, current.Type, current.Status, current.Priority,
		current.EpicID, current.EstimateBucket, boolToInt(current.IsClientVisible), id)
	if err != nil {
		return Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// AssignTaskToSprint schedules a task into a sprint with the given status.
// One targeted UPDATE, used by backlog-to-board drops.
func (s *Store) AssignTaskToSprint(ctx context.Context, taskID, sprintID, status string) (Task, error) {
	if _, ok := ValidTaskStatuses[status]; !ok {
		return Task{}, fmt.Errorf("invalid task status: %s", status)
	}
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	if err := s.checkSprintProject(ctx, sprintID, task.ProjectID); err != nil {
		return Task{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET sprint_id = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		sprintID, status, taskID)
	if err != nil {
		return Task{}, fmt.Errorf("failed to assign task to sprint: %w", err)
	}
	return s.GetTask(ctx, taskID)
}

// SetTaskStatus moves a task between board columns, sprint untouched.
func (s *Store) SetTaskStatus(ctx context.Context, taskID, status string) (Task, error) {
	if _, ok := ValidTaskStatuses[status]; !ok {
		return Task{}, fmt.Errorf("invalid task status: %s", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, taskID)
	if err != nil {
		return Task{}, fmt.Errorf("failed to set task status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, ErrNotFound
	}
	return s.GetTask(ctx, taskID)
}

// ClearTaskSprint sends a task back to the backlog, status untouched.
func (s *Store) ClearTaskSprint(ctx context.Context, taskID string) (Task, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET sprint_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, taskID)
	if err != nil {
		return Task{}, fmt.Errorf("failed to clear task sprint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, ErrNotFound
	}
	return s.GetTask(ctx, taskID)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) checkSprintProject(ctx context.Context, sprintID, projectID string) error {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT project_id FROM sprints WHERE id = ?`, sprintID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sprint not found: %s", sprintID)
	}
	if err != nil {
		return fmt.Errorf("failed to query sprint: %w", err)
	}
	if owner != projectID {
		return fmt.Errorf("sprint %s belongs to a different project", sprintID)
	}
	return nil
}

func (s *Store) checkEpicProject(ctx context.Context, epicID, projectID string) error {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT project_id FROM epics WHERE id = ?`, epicID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("epic not found: %s", epicID)
	}
	if err != nil {
		return fmt.Errorf("failed to query epic: %w", err)
	}
	if owner != projectID {
		return fmt.Errorf("epic %s belongs to a different project", epicID)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
