package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
)

type TimeEntryHandler struct {
	store  *database.Store
	logger *logrus.Logger
}

func NewTimeEntryHandler(store *database.Store, logger *logrus.Logger) *TimeEntryHandler {
	return &TimeEntryHandler{store: store, logger: logger}
}

type createTimeEntryRequest struct {
	TaskID          *string `json:"taskId"`
	Category        string  `json:"category" validate:"required,oneof=project_management development documentation maintenance_evolution"`
	DurationMinutes int     `json:"durationMinutes" validate:"required,gt=0"`
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	Notes           string  `json:"notes"`
}

func (h *TimeEntryHandler) CreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req createTimeEntryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	entry, err := h.store.CreateTimeEntry(r.Context(), database.TimeEntry{
		ProjectID:       projectID,
		TaskID:          req.TaskID,
		UserID:          userID(r),
		Category:        req.Category,
		DurationMinutes: req.DurationMinutes,
		Date:            req.Date,
		Notes:           req.Notes,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (h *TimeEntryHandler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	entries, err := h.store.ListTimeEntries(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

type updateTimeEntryRequest struct {
	Category        *string `json:"category" validate:"omitempty,oneof=project_management development documentation maintenance_evolution"`
	DurationMinutes *int    `json:"durationMinutes" validate:"omitempty,gt=0"`
	Date            *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes           *string `json:"notes"`
}

func (h *TimeEntryHandler) UpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	var req updateTimeEntryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := h.store.UpdateTimeEntry(r.Context(), entry.ID,
		req.DurationMinutes, req.Category, req.Date, req.Notes)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *TimeEntryHandler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteTimeEntry(r.Context(), entry.ID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": entry.ID})
}

func (h *TimeEntryHandler) loadEntry(w http.ResponseWriter, r *http.Request) (database.TimeEntry, bool) {
	entry, err := h.store.GetTimeEntry(r.Context(), mux.Vars(r)["entryId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return database.TimeEntry{}, false
	}
	if _, err := requireMembership(r, h.store, entry.ProjectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return database.TimeEntry{}, false
	}
	return entry, true
}
