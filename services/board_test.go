package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"sprintdesk/database"
)

func strPtr(s string) *string { return &s }

func TestPartitionTasks(t *testing.T) {
	sprintA := "sprint-a"
	tasks := []database.Task{
		{ID: "t1", Status: database.TaskStatusTodo},                          // backlog
		{ID: "t2", Status: database.TaskStatusDone},                          // neither: done and unscheduled
		{ID: "t3", SprintID: strPtr(sprintA), Status: database.TaskStatusTodo},
		{ID: "t4", SprintID: strPtr(sprintA), Status: database.TaskStatusDone}, // done but scheduled stays sprint-scoped
		{ID: "t5", SprintID: strPtr("sprint-b"), Status: database.TaskStatusInProgress},
	}

	backlog, scoped := PartitionTasks(tasks, sprintA)

	if len(backlog) != 1 || backlog[0].ID != "t1" {
		t.Fatalf("expected backlog [t1], got %v", ids(backlog))
	}
	if len(scoped) != 2 || scoped[0].ID != "t3" || scoped[1].ID != "t4" {
		t.Fatalf("expected sprint-scoped [t3 t4], got %v", ids(scoped))
	}

	// A task never appears in both partitions for a concrete sprint
	for _, b := range backlog {
		for _, s := range scoped {
			if b.ID == s.ID {
				t.Errorf("task %s is in both backlog and sprint-scoped", b.ID)
			}
		}
	}
}

func TestPartitionTasks_AllSprintsSentinel(t *testing.T) {
	tasks := []database.Task{
		{ID: "t1", Status: database.TaskStatusTodo},
		{ID: "t2", SprintID: strPtr("s1"), Status: database.TaskStatusDone},
		{ID: "t3", SprintID: strPtr("s2"), Status: database.TaskStatusBlocked},
	}

	backlog, scoped := PartitionTasks(tasks, SprintAll)

	if len(scoped) != 3 {
		t.Errorf("sentinel view should show every task, got %d", len(scoped))
	}
	if len(backlog) != 1 || backlog[0].ID != "t1" {
		t.Errorf("expected backlog [t1], got %v", ids(backlog))
	}
}

func TestResolveDrop(t *testing.T) {
	inSprint := database.Task{ID: "t1", SprintID: strPtr("s1"), Status: database.TaskStatusTodo}
	unscheduled := database.Task{ID: "t2", Status: database.TaskStatusTodo}

	tests := []struct {
		name           string
		task           database.Task
		source         DropSource
		selectedSprint string
		target         DropTarget
		want           dropAction
		wantErr        error
	}{
		{
			name:           "backlog to column with concrete sprint",
			task:           unscheduled,
			source:         DropSourceBacklog,
			selectedSprint: "s1",
			target:         DropTarget{Status: database.TaskStatusInProgress},
			want:           dropActionAssign,
		},
		{
			name:           "backlog to column under all-sprints sentinel",
			task:           unscheduled,
			source:         DropSourceBacklog,
			selectedSprint: SprintAll,
			target:         DropTarget{Status: database.TaskStatusInProgress},
			wantErr:        ErrAllSprintsSelected,
		},
		{
			name:           "backlog to column with no sprint selected",
			task:           unscheduled,
			source:         DropSourceBacklog,
			selectedSprint: "",
			target:         DropTarget{Status: database.TaskStatusTodo},
			wantErr:        ErrAllSprintsSelected,
		},
		{
			name:           "kanban to same column is a no-op",
			task:           inSprint,
			source:         DropSourceKanban,
			selectedSprint: "s1",
			target:         DropTarget{Status: database.TaskStatusTodo},
			want:           dropActionNone,
		},
		{
			name:           "kanban to other column updates status only",
			task:           inSprint,
			source:         DropSourceKanban,
			selectedSprint: "s1",
			target:         DropTarget{Status: database.TaskStatusBlocked},
			want:           dropActionStatus,
		},
		{
			name:           "any drop into backlog clears the sprint",
			task:           inSprint,
			source:         DropSourceKanban,
			selectedSprint: SprintAll,
			target:         DropTarget{Backlog: true},
			want:           dropActionBacklog,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveDrop(tc.task, tc.source, tc.selectedSprint, tc.target)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected action %d, got %d", tc.want, got)
			}
		})
	}
}

func TestBoardService_MoveTask(t *testing.T) {
	store, sprintID, taskID, projectID := setupBoardFixture(t)

	logger := logrus.New()
	hub := NewHub(logger)
	go hub.Run()
	board := NewBoardService(store, hub, logger)
	ctx := context.Background()

	// Backlog drop into in_progress schedules the task
	task, err := board.MoveTask(ctx, projectID, taskID, DropSourceBacklog, sprintID,
		DropTarget{Status: database.TaskStatusInProgress})
	if err != nil {
		t.Fatalf("move from backlog failed: %v", err)
	}
	if task.SprintID == nil || *task.SprintID != sprintID {
		t.Errorf("expected sprint %s, got %v", sprintID, task.SprintID)
	}
	if task.Status != database.TaskStatusInProgress {
		t.Errorf("expected status in_progress, got %s", task.Status)
	}

	// Backlog drop while "all sprints" is selected performs zero mutations
	if _, err := board.MoveTask(ctx, projectID, taskID, DropSourceBacklog, SprintAll,
		DropTarget{Status: database.TaskStatusDone}); !errors.Is(err, ErrAllSprintsSelected) {
		t.Fatalf("expected ErrAllSprintsSelected, got %v", err)
	}
	unchanged, err := store.GetTask(ctx, taskID)
	if err != nil {
		t.Fatal(err)
	}
	if unchanged.Status != database.TaskStatusInProgress {
		t.Errorf("rejected drop must not mutate, status is %s", unchanged.Status)
	}

	// Returning to the backlog clears the sprint but keeps the status
	task, err = board.MoveTask(ctx, projectID, taskID, DropSourceKanban, sprintID,
		DropTarget{Backlog: true})
	if err != nil {
		t.Fatalf("move to backlog failed: %v", err)
	}
	if task.SprintID != nil {
		t.Errorf("expected sprint cleared, got %v", *task.SprintID)
	}
	if task.Status != database.TaskStatusInProgress {
		t.Errorf("status must survive the move back, got %s", task.Status)
	}
}

func setupBoardFixture(t *testing.T) (store *database.Store, sprintID, taskID, projectID string) {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store = database.NewStore(db)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Fixture", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	sprint, err := store.CreateSprint(ctx, database.Sprint{ProjectID: project.ID, Name: "Sprint 1"})
	if err != nil {
		t.Fatal(err)
	}
	task, err := store.CreateTask(ctx, database.Task{ProjectID: project.ID, Title: "Fixture task"})
	if err != nil {
		t.Fatal(err)
	}
	return store, sprint.ID, task.ID, project.ID
}

func ids(tasks []database.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
