package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
	"sprintdesk/services"
)

// StatsHandler serves the in-memory aggregations: everything is reduced from
// one list fetch, never computed in SQL.
type StatsHandler struct {
	store  *database.Store
	logger *logrus.Logger
}

func NewStatsHandler(store *database.Store, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{store: store, logger: logger}
}

func (h *StatsHandler) TaskStats(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	member, err := requireMembership(r, h.store, projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	tasks, err := h.store.ListTasks(r.Context(), projectID, database.TaskFilter{
		ClientVisibleOnly: member.Role == database.RoleProjectClient,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, services.AggregateTasks(tasks))
}

func (h *StatsHandler) TimeStats(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, services.AggregateTimeEntries(entries))
}

// BillingStats compares logged minutes against non-cancelled invoices.
func (h *StatsHandler) BillingStats(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID, database.RoleProjectAdmin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	entries, err := h.store.ListTimeEntries(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	invoices, err := h.store.ListInvoices(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	logged := services.AggregateTimeEntries(entries).TotalMinutes
	respondJSON(w, http.StatusOK, services.AggregateBilling(logged, invoices))
}
