package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
	"sprintdesk/services"
)

type EpicHandler struct {
	store  *database.Store
	hub    *services.Hub
	logger *logrus.Logger
}

func NewEpicHandler(store *database.Store, hub *services.Hub, logger *logrus.Logger) *EpicHandler {
	return &EpicHandler{store: store, hub: hub, logger: logger}
}

type epicRequest struct {
	Title  *string `json:"title"`
	Status *string `json:"status" validate:"omitempty,oneof=open in_progress done archived"`
}

func (h *EpicHandler) CreateEpic(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req epicRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.Title == nil || *req.Title == "" {
		respondError(w, http.StatusUnprocessableEntity, "title failed on required")
		return
	}

	epic, err := h.store.CreateEpic(r.Context(), projectID, *req.Title)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(projectID, "epics")
	respondJSON(w, http.StatusCreated, epic)
}

func (h *EpicHandler) ListEpics(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	epics, err := h.store.ListEpics(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, epics)
}

func (h *EpicHandler) UpdateEpic(w http.ResponseWriter, r *http.Request) {
	epic, ok := h.loadEpic(w, r)
	if !ok {
		return
	}

	var req epicRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := h.store.UpdateEpic(r.Context(), epic.ID, req.Title, req.Status)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(epic.ProjectID, "epics")
	respondJSON(w, http.StatusOK, updated)
}

func (h *EpicHandler) DeleteEpic(w http.ResponseWriter, r *http.Request) {
	epic, ok := h.loadEpic(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteEpic(r.Context(), epic.ID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.BroadcastRefresh(epic.ProjectID, "epics")
	respondJSON(w, http.StatusOK, map[string]string{"deleted": epic.ID})
}

func (h *EpicHandler) loadEpic(w http.ResponseWriter, r *http.Request) (database.Epic, bool) {
	epic, err := h.store.GetEpic(r.Context(), mux.Vars(r)["epicId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return database.Epic{}, false
	}
	if _, err := requireMembership(r, h.store, epic.ProjectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return database.Epic{}, false
	}
	return epic, true
}
