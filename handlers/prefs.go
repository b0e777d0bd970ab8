package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
)

// PrefsHandler persists per-user, per-project view state: view mode and
// panel-open flags. Keys are opaque to the server.
type PrefsHandler struct {
	store  *database.Store
	logger *logrus.Logger
}

func NewPrefsHandler(store *database.Store, logger *logrus.Logger) *PrefsHandler {
	return &PrefsHandler{store: store, logger: logger}
}

func (h *PrefsHandler) GetPrefs(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	prefs, err := h.store.GetViewPrefs(r.Context(), userID(r), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

type setPrefRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

func (h *PrefsHandler) SetPref(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req setPrefRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.store.SetViewPref(r.Context(), userID(r), projectID, req.Key, req.Value); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{req.Key: req.Value})
}
