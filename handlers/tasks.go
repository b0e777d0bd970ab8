package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
	"sprintdesk/services"
)

// TaskHandler covers task CRUD, the partitioned board view, and drop moves.
type TaskHandler struct {
	store  *database.Store
	board  *services.BoardService
	hub    *services.Hub
	logger *logrus.Logger
}

func NewTaskHandler(store *database.Store, board *services.BoardService, hub *services.Hub, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{store: store, board: board, hub: hub, logger: logger}
}

type createTaskRequest struct {
	Title           string  `json:"title" validate:"required"`
	Description     string  `json:"description"`
	Type            string  `json:"type" validate:"omitempty,oneof=bug new_feature improvement"`
	Status          string  `json:"status" validate:"omitempty,oneof=todo in_progress blocked waiting_for_client done"`
	Priority        string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	SprintID        *string `json:"sprintId"`
	EpicID          *string `json:"epicId"`
	EstimateBucket  *string `json:"estimateBucket" validate:"omitempty,oneof=XS S M L XL XXL"`
	IsClientVisible bool    `json:"isClientVisible"`
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req createTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	task, err := h.store.CreateTask(r.Context(), database.Task{
		ProjectID:       projectID,
		EpicID:          req.EpicID,
		SprintID:        req.SprintID,
		Title:           req.Title,
		Description:     req.Description,
		Type:            req.Type,
		Status:          req.Status,
		Priority:        req.Priority,
		EstimateBucket:  req.EstimateBucket,
		IsClientVisible: req.IsClientVisible,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(projectID, "tasks")
	respondJSON(w, http.StatusCreated, task)
}

// ListTasks returns a project's tasks, optionally narrowed by sprint, status
// or epic query parameters. Clients only ever see client-visible tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	member, err := requireMembership(r, h.store, projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	filter := database.TaskFilter{
		Status:            r.URL.Query().Get("status"),
		EpicID:            r.URL.Query().Get("epic"),
		ClientVisibleOnly: member.Role == database.RoleProjectClient,
	}
	if sprint := r.URL.Query().Get("sprint"); sprint != "" && sprint != services.SprintAll {
		filter.SprintID = &sprint
	}

	tasks, err := h.store.ListTasks(r.Context(), projectID, filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, member, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if member.Role == database.RoleProjectClient && !task.IsClientVisible {
		respondError(w, http.StatusForbidden, ErrForbidden.Error())
		return
	}
	respondJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Type            *string `json:"type" validate:"omitempty,oneof=bug new_feature improvement"`
	Status          *string `json:"status" validate:"omitempty,oneof=todo in_progress blocked waiting_for_client done"`
	Priority        *string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	EpicID          *string `json:"epicId"`
	EstimateBucket  *string `json:"estimateBucket"`
	IsClientVisible *bool   `json:"isClientVisible"`
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, member, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if member.Role == database.RoleProjectClient {
		respondError(w, http.StatusForbidden, ErrForbidden.Error())
		return
	}

	var req updateTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := h.store.UpdateTask(r.Context(), task.ID, database.TaskUpdate{
		Title:           req.Title,
		Description:     req.Description,
		Type:            req.Type,
		Status:          req.Status,
		Priority:        req.Priority,
		EpicID:          req.EpicID,
		EstimateBucket:  req.EstimateBucket,
		IsClientVisible: req.IsClientVisible,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(task.ProjectID, "tasks")
	respondJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, member, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if member.Role == database.RoleProjectClient {
		respondError(w, http.StatusForbidden, ErrForbidden.Error())
		return
	}

	if err := h.store.DeleteTask(r.Context(), task.ID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(task.ProjectID, "tasks")
	respondJSON(w, http.StatusOK, map[string]string{"deleted": task.ID})
}

// BoardView returns the backlog/sprint partition for the selected sprint
// (or the "all" sentinel).
func (h *TaskHandler) BoardView(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	member, err := requireMembership(r, h.store, projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	selected := r.URL.Query().Get("sprint")
	if selected == "" {
		selected = services.SprintAll
	}

	view, err := h.board.View(r.Context(), projectID, selected,
		member.Role == database.RoleProjectClient)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type moveTaskRequest struct {
	TaskID         string `json:"taskId" validate:"required"`
	Source         string `json:"source" validate:"required,oneof=backlog kanban"`
	SelectedSprint string `json:"selectedSprint"`
	TargetStatus   string `json:"targetStatus"`
	ToBacklog      bool   `json:"toBacklog"`
}

// MoveTask reconciles a single drop event on the board.
func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req moveTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	task, err := h.board.MoveTask(r.Context(), projectID, req.TaskID,
		services.DropSource(req.Source), req.SelectedSprint,
		services.DropTarget{Backlog: req.ToBacklog, Status: req.TargetStatus})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// loadTask fetches the task from the path id and checks project membership.
func (h *TaskHandler) loadTask(w http.ResponseWriter, r *http.Request) (database.Task, database.Membership, bool) {
	task, err := h.store.GetTask(r.Context(), mux.Vars(r)["taskId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return database.Task{}, database.Membership{}, false
	}
	member, err := requireMembership(r, h.store, task.ProjectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return database.Task{}, database.Membership{}, false
	}
	return task, member, true
}
