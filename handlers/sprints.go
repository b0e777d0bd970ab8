package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
	"sprintdesk/services"
)

type SprintHandler struct {
	store  *database.Store
	hub    *services.Hub
	logger *logrus.Logger
}

func NewSprintHandler(store *database.Store, hub *services.Hub, logger *logrus.Logger) *SprintHandler {
	return &SprintHandler{store: store, hub: hub, logger: logger}
}

type sprintRequest struct {
	Name      *string `json:"name"`
	Status    *string `json:"status" validate:"omitempty,oneof=planned active completed cancelled archived"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	SortIndex *int    `json:"sortIndex"`
}

func (h *SprintHandler) CreateSprint(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req sprintRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.Name == nil || *req.Name == "" {
		respondError(w, http.StatusUnprocessableEntity, "name failed on required")
		return
	}

	sprint := database.Sprint{ProjectID: projectID, Name: *req.Name}
	if req.Status != nil {
		sprint.Status = *req.Status
	}
	sprint.StartDate = req.StartDate
	sprint.EndDate = req.EndDate
	if req.SortIndex != nil {
		sprint.SortIndex = *req.SortIndex
	}

	created, err := h.store.CreateSprint(r.Context(), sprint)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(projectID, "sprints")
	respondJSON(w, http.StatusCreated, created)
}

func (h *SprintHandler) ListSprints(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	sprints, err := h.store.ListSprints(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, sprints)
}

func (h *SprintHandler) UpdateSprint(w http.ResponseWriter, r *http.Request) {
	sprint, ok := h.loadSprint(w, r)
	if !ok {
		return
	}

	var req sprintRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := h.store.UpdateSprint(r.Context(), sprint.ID,
		req.Name, req.Status, req.StartDate, req.EndDate, req.SortIndex)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(sprint.ProjectID, "sprints")
	respondJSON(w, http.StatusOK, updated)
}

// ActivateSprint makes a sprint the project's active one, demoting any other
// active sprint back to planned.
func (h *SprintHandler) ActivateSprint(w http.ResponseWriter, r *http.Request) {
	sprint, ok := h.loadSprint(w, r)
	if !ok {
		return
	}

	activated, err := h.store.ActivateSprint(r.Context(), sprint.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(sprint.ProjectID, "sprints")
	respondJSON(w, http.StatusOK, activated)
}

func (h *SprintHandler) DeleteSprint(w http.ResponseWriter, r *http.Request) {
	sprint, ok := h.loadSprint(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteSprint(r.Context(), sprint.ID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(sprint.ProjectID, "sprints")
	respondJSON(w, http.StatusOK, map[string]string{"deleted": sprint.ID})
}

// loadSprint fetches the sprint from the path id and checks the caller can
// modify it (admin or participant).
func (h *SprintHandler) loadSprint(w http.ResponseWriter, r *http.Request) (database.Sprint, bool) {
	sprint, err := h.store.GetSprint(r.Context(), mux.Vars(r)["sprintId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return database.Sprint{}, false
	}
	if _, err := requireMembership(r, h.store, sprint.ProjectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return database.Sprint{}, false
	}
	return sprint, true
}
