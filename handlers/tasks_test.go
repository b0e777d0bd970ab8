package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
	"sprintdesk/services"
)

type boardFixture struct {
	router    *mux.Router
	token     string
	projectID string
	sprintID  string
	taskID    string
}

func newBoardFixture(t *testing.T) boardFixture {
	t.Helper()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := database.NewStore(db)

	logger := logrus.New()
	authService := services.NewAuthService(logger)
	hub := services.NewHub(logger)
	go hub.Run()
	board := services.NewBoardService(store, hub, logger)

	ctx := context.Background()
	user, err := store.GetOrCreateUserByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatal(err)
	}
	project, err := store.CreateProject(ctx, "Fixture", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddMembership(ctx, project.ID, user.ID, database.RoleProjectAdmin); err != nil {
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

	token, err := authService.CreateJWT(user.ID, user.Email)
	if err != nil {
		t.Fatal(err)
	}

	taskHandler := NewTaskHandler(store, board, hub, logger)
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(NewAuthMiddleware(authService).Auth)
	api.HandleFunc("/projects/{id}/board", taskHandler.BoardView).Methods("GET")
	api.HandleFunc("/projects/{id}/board/move", taskHandler.MoveTask).Methods("POST")

	return boardFixture{
		router:    r,
		token:     token,
		projectID: project.ID,
		sprintID:  sprint.ID,
		taskID:    task.ID,
	}
}

func (f boardFixture) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("bad data payload: %v", err)
	}
}

func TestBoardView_RequiresAuth(t *testing.T) {
	f := newBoardFixture(t)

	rec := f.do(t, "GET", "/api/projects/"+f.projectID+"/board", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestBoardView_DefaultsToAllSprints(t *testing.T) {
	f := newBoardFixture(t)

	rec := f.do(t, "GET", "/api/projects/"+f.projectID+"/board", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view services.BoardView
	decodeData(t, rec, &view)
	if len(view.Backlog) != 1 {
		t.Errorf("expected the unscheduled task in the backlog, got %d", len(view.Backlog))
	}
	if len(view.SprintTasks) != 1 {
		t.Errorf("the all-sprints view shows every task, got %d", len(view.SprintTasks))
	}
}

func TestMoveTask_BacklogToColumn(t *testing.T) {
	f := newBoardFixture(t)

	rec := f.do(t, "POST", "/api/projects/"+f.projectID+"/board/move", map[string]any{
		"taskId":         f.taskID,
		"source":         "backlog",
		"selectedSprint": f.sprintID,
		"targetStatus":   database.TaskStatusInProgress,
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var task database.Task
	decodeData(t, rec, &task)
	if task.SprintID == nil || *task.SprintID != f.sprintID {
		t.Errorf("expected the task scheduled into %s, got %v", f.sprintID, task.SprintID)
	}
	if task.Status != database.TaskStatusInProgress {
		t.Errorf("expected status in_progress, got %s", task.Status)
	}
}

func TestMoveTask_SentinelConflict(t *testing.T) {
	f := newBoardFixture(t)

	rec := f.do(t, "POST", "/api/projects/"+f.projectID+"/board/move", map[string]any{
		"taskId":         f.taskID,
		"source":         "backlog",
		"selectedSprint": services.SprintAll,
		"targetStatus":   database.TaskStatusDone,
	}, true)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for a backlog drop under the all-sprints view, got %d: %s",
			rec.Code, rec.Body.String())
	}
}

func TestMoveTask_ValidationError(t *testing.T) {
	f := newBoardFixture(t)

	rec := f.do(t, "POST", "/api/projects/"+f.projectID+"/board/move", map[string]any{
		"taskId": f.taskID,
		"source": "teleport",
	}, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for an unknown source, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMoveTask_NonMemberForbidden(t *testing.T) {
	f := newBoardFixture(t)

	// A second project the fixture user is not a member of
	rec := f.do(t, "POST", "/api/projects/other-project/board/move", map[string]any{
		"taskId":         f.taskID,
		"source":         "backlog",
		"selectedSprint": f.sprintID,
		"targetStatus":   database.TaskStatusTodo,
	}, true)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a non-member, got %d: %s", rec.Code, rec.Body.String())
	}
}
