package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
)

// ProjectHandler covers projects, clients and memberships.
type ProjectHandler struct {
	store  *database.Store
	logger *logrus.Logger
}

func NewProjectHandler(store *database.Store, logger *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, logger: logger}
}

type createProjectRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	ClientID    *string `json:"clientId"`
}

// CreateProject creates a project and makes the caller its admin.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	project, err := h.store.CreateProject(r.Context(), req.Name, req.Description, req.ClientID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if _, err := h.store.AddMembership(r.Context(), project.ID, userID(r), database.RoleProjectAdmin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjectsForUser(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID, database.RoleProjectAdmin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req createProjectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	project, err := h.store.UpdateProject(r.Context(), projectID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// DeleteProject removes a project; admin only.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID, database.RoleProjectAdmin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := h.store.DeleteProject(r.Context(), projectID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": projectID})
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=project_admin project_participant project_client"`
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID, database.RoleProjectAdmin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req addMemberRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	member, err := h.store.AddMembership(r.Context(), projectID, req.UserID, req.Role)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, member)
}

func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	members, err := h.store.ListMemberships(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	projectID := vars["id"]
	if _, err := requireMembership(r, h.store, projectID, database.RoleProjectAdmin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := h.store.RemoveMembership(r.Context(), projectID, vars["userId"]); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"removed": vars["userId"]})
}

type createClientRequest struct {
	Name         string `json:"name" validate:"required"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
}

func (h *ProjectHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	client, err := h.store.CreateClient(r.Context(), req.Name, req.ContactEmail)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, client)
}

func (h *ProjectHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}
