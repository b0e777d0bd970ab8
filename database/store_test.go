package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func ptr(s string) *string { return &s }

func TestCreateTask_Defaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Acme Site", "", nil)
	if err != nil {
		t.Fatal(err)
	}

	task, err := store.CreateTask(ctx, Task{ProjectID: project.ID, Title: "  Set up CI  "})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if task.Title != "Set up CI" {
		t.Errorf("expected trimmed title, got %q", task.Title)
	}
	if task.Type != TaskTypeNewFeature || task.Status != TaskStatusTodo || task.Priority != TaskPriorityMedium {
		t.Errorf("unexpected defaults: type=%s status=%s priority=%s", task.Type, task.Status, task.Priority)
	}
	if task.SprintID != nil || task.EpicID != nil {
		t.Error("new task must start unscheduled and unattached")
	}
}

func TestCreateTask_RejectsInvalidEstimate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Acme Site", "", nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.CreateTask(ctx, Task{ProjectID: project.ID, Title: "Bad", EstimateBucket: ptr("huge")})
	if err == nil {
		t.Error("expected an invalid estimate bucket to be rejected")
	}
}

func TestAssignTaskToSprint_CrossProjectRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	projectA, err := store.CreateProject(ctx, "Project A", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	projectB, err := store.CreateProject(ctx, "Project B", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	task, err := store.CreateTask(ctx, Task{ProjectID: projectA.ID, Title: "A task"})
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := store.CreateSprint(ctx, Sprint{ProjectID: projectB.ID, Name: "B sprint"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.AssignTaskToSprint(ctx, task.ID, foreign.ID, TaskStatusTodo); err == nil {
		t.Error("expected assignment to a foreign project's sprint to fail")
	}

	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SprintID != nil {
		t.Error("rejected assignment must not schedule the task")
	}
}

func TestClearTaskSprint_KeepsStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Acme Site", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	sprint, err := store.CreateSprint(ctx, Sprint{ProjectID: project.ID, Name: "Sprint 1"})
	if err != nil {
		t.Fatal(err)
	}
	task, err := store.CreateTask(ctx, Task{ProjectID: project.ID, Title: "In flight"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AssignTaskToSprint(ctx, task.ID, sprint.ID, TaskStatusInProgress); err != nil {
		t.Fatal(err)
	}

	got, err := store.ClearTaskSprint(ctx, task.ID)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if got.SprintID != nil {
		t.Error("expected sprint cleared")
	}
	if got.Status != TaskStatusInProgress {
		t.Errorf("status must survive unscheduling, got %s", got.Status)
	}
}

func TestActivateSprint_DemotesOtherActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Acme Site", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	first, err := store.CreateSprint(ctx, Sprint{ProjectID: project.ID, Name: "Sprint 1", Status: SprintStatusActive})
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.CreateSprint(ctx, Sprint{ProjectID: project.ID, Name: "Sprint 2"})
	if err != nil {
		t.Fatal(err)
	}
	// A sprint in another project keeps its active status
	other, err := store.CreateProject(ctx, "Other", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	unrelated, err := store.CreateSprint(ctx, Sprint{ProjectID: other.ID, Name: "Elsewhere", Status: SprintStatusActive})
	if err != nil {
		t.Fatal(err)
	}

	activated, err := store.ActivateSprint(ctx, second.ID)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if activated.Status != SprintStatusActive {
		t.Errorf("expected active, got %s", activated.Status)
	}

	demoted, err := store.GetSprint(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if demoted.Status != SprintStatusPlanned {
		t.Errorf("expected the previous active sprint demoted to planned, got %s", demoted.Status)
	}

	untouched, err := store.GetSprint(ctx, unrelated.ID)
	if err != nil {
		t.Fatal(err)
	}
	if untouched.Status != SprintStatusActive {
		t.Errorf("activation must not touch other projects, got %s", untouched.Status)
	}
}

func TestDeleteSprint_UnschedulesTasks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Acme Site", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	sprint, err := store.CreateSprint(ctx, Sprint{ProjectID: project.ID, Name: "Sprint 1"})
	if err != nil {
		t.Fatal(err)
	}
	task, err := store.CreateTask(ctx, Task{ProjectID: project.ID, Title: "Scheduled", SprintID: &sprint.ID})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteSprint(ctx, sprint.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SprintID != nil {
		t.Error("deleting a sprint must send its tasks back to the backlog")
	}
}

func TestListTasks_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Acme Site", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	sprint, err := store.CreateSprint(ctx, Sprint{ProjectID: project.ID, Name: "Sprint 1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateTask(ctx, Task{ProjectID: project.ID, Title: "Backlog item"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateTask(ctx, Task{
		ProjectID: project.ID, Title: "Visible", SprintID: &sprint.ID, IsClientVisible: true,
	}); err != nil {
		t.Fatal(err)
	}

	inSprint, err := store.ListTasks(ctx, project.ID, TaskFilter{SprintID: &sprint.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(inSprint) != 1 || inSprint[0].Title != "Visible" {
		t.Errorf("expected only the scheduled task, got %d", len(inSprint))
	}

	visible, err := store.ListTasks(ctx, project.ID, TaskFilter{ClientVisibleOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 1 || !visible[0].IsClientVisible {
		t.Errorf("expected only client-visible tasks, got %d", len(visible))
	}

	all, err := store.ListTasks(ctx, project.ID, TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 tasks unfiltered, got %d", len(all))
	}
}

func TestAddMembership_UpsertsRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Acme Site", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	user, err := store.GetOrCreateUserByEmail(ctx, "dev@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.AddMembership(ctx, project.ID, user.ID, RoleProjectParticipant); err != nil {
		t.Fatal(err)
	}
	m, err := store.AddMembership(ctx, project.ID, user.ID, RoleProjectAdmin)
	if err != nil {
		t.Fatalf("re-adding must upsert the role: %v", err)
	}
	if m.Role != RoleProjectAdmin {
		t.Errorf("expected role promoted to admin, got %s", m.Role)
	}

	members, err := store.ListMemberships(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 {
		t.Errorf("upsert must not duplicate the membership row, got %d", len(members))
	}
}

func TestCreateTimeEntry_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Acme Site", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	user, err := store.GetOrCreateUserByEmail(ctx, "dev@example.com")
	if err != nil {
		t.Fatal(err)
	}

	base := TimeEntry{
		ProjectID:       project.ID,
		UserID:          user.ID,
		Category:        TimeCategoryDevelopment,
		DurationMinutes: 30,
		Date:            "2026-08-28",
	}

	if _, err := store.CreateTimeEntry(ctx, base); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	bad := base
	bad.DurationMinutes = 0
	if _, err := store.CreateTimeEntry(ctx, bad); err == nil {
		t.Error("expected zero duration to be rejected")
	}

	bad = base
	bad.Category = "gaming"
	if _, err := store.CreateTimeEntry(ctx, bad); err == nil {
		t.Error("expected unknown category to be rejected")
	}

	bad = base
	bad.Date = ""
	if _, err := store.CreateTimeEntry(ctx, bad); err == nil {
		t.Error("expected missing date to be rejected")
	}
}

func TestGetTask_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetTask(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
