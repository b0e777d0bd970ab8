package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
)

type InvoiceHandler struct {
	store  *database.Store
	logger *logrus.Logger
}

func NewInvoiceHandler(store *database.Store, logger *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{store: store, logger: logger}
}

type createInvoiceRequest struct {
	ClientID      string  `json:"clientId" validate:"required"`
	Label         string  `json:"label" validate:"required"`
	Status        string  `json:"status" validate:"omitempty,oneof=draft sent paid cancelled"`
	AmountCents   int64   `json:"amountCents" validate:"gte=0"`
	Currency      string  `json:"currency" validate:"omitempty,len=3"`
	BilledMinutes int     `json:"billedMinutes" validate:"gte=0"`
	IssueDate     string  `json:"issueDate" validate:"required,datetime=2006-01-02"`
	DueDate       *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID, database.RoleProjectAdmin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req createInvoiceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	invoice, err := h.store.CreateInvoice(r.Context(), database.Invoice{
		ProjectID:     projectID,
		ClientID:      req.ClientID,
		Label:         req.Label,
		Status:        req.Status,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
		BilledMinutes: req.BilledMinutes,
		IssueDate:     req.IssueDate,
		DueDate:       req.DueDate,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, invoice)
}

func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := requireMembership(r, h.store, projectID,
		database.RoleProjectAdmin, database.RoleProjectParticipant); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	invoices, err := h.store.ListInvoices(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

type updateInvoiceRequest struct {
	Label         *string `json:"label"`
	Status        *string `json:"status" validate:"omitempty,oneof=draft sent paid cancelled"`
	AmountCents   *int64  `json:"amountCents" validate:"omitempty,gte=0"`
	BilledMinutes *int    `json:"billedMinutes" validate:"omitempty,gte=0"`
	DueDate       *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

func (h *InvoiceHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.store.GetInvoice(r.Context(), mux.Vars(r)["invoiceId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if _, err := requireMembership(r, h.store, invoice.ProjectID, database.RoleProjectAdmin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var req updateInvoiceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := h.store.UpdateInvoice(r.Context(), invoice.ID,
		req.Label, req.Status, req.AmountCents, req.BilledMinutes, req.DueDate)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteInvoice is restricted to project admins.
func (h *InvoiceHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.store.GetInvoice(r.Context(), mux.Vars(r)["invoiceId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if _, err := requireMembership(r, h.store, invoice.ProjectID, database.RoleProjectAdmin); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := h.store.DeleteInvoice(r.Context(), invoice.ID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": invoice.ID})
}
