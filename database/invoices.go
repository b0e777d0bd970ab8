package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const invoiceColumns = `id, project_id, client_id, label, status, amount_cents, currency, billed_minutes, issue_date, due_date`

func scanInvoice(scan func(...any) error) (Invoice, error) {
	var inv Invoice
	err := scan(&inv.ID, &inv.ProjectID, &inv.ClientID, &inv.Label, &inv.Status,
		&inv.AmountCents, &inv.Currency, &inv.BilledMinutes, &inv.IssueDate, &inv.DueDate)
	return inv, err
}

func (s *Store) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	if strings.TrimSpace(inv.Label) == "" {
		return Invoice{}, errors.New("invoice label must not be empty")
	}
	if inv.Status == "" {
		inv.Status = InvoiceStatusDraft
	}
	if _, ok := ValidInvoiceStatuses[inv.Status]; !ok {
		return Invoice{}, fmt.Errorf("invalid invoice status: %s", inv.Status)
	}
	if inv.Currency == "" {
		inv.Currency = "EUR"
	}
	if inv.IssueDate == "" {
		return Invoice{}, errors.New("issue date is required")
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, project_id, client_id, label, status, amount_cents, currency, billed_minutes, issue_date, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, inv.ProjectID, inv.ClientID, strings.TrimSpace(inv.Label), inv.Status,
		inv.AmountCents, inv.Currency, inv.BilledMinutes, inv.IssueDate, inv.DueDate)
	if err != nil {
		return Invoice{}, fmt.Errorf("failed to insert invoice: %w", err)
	}
	return s.GetInvoice(ctx, id)
}

func (s *Store) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM invoices WHERE id = ?`, invoiceColumns), id)
	inv, err := scanInvoice(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("failed to query invoice: %w", err)
	}
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, projectID string) ([]Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM invoices WHERE project_id = ? ORDER BY issue_date, id`, invoiceColumns),
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *Store) UpdateInvoice(ctx context.Context, id string, label, status *string, amountCents *int64, billedMinutes *int, dueDate *string) (Invoice, error) {
	current, err := s.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if label != nil && strings.TrimSpace(*label) != "" {
		current.Label = strings.TrimSpace(*label)
	}
	if status != nil {
		if _, ok := ValidInvoiceStatuses[*status]; !ok {
			return Invoice{}, fmt.Errorf("invalid invoice status: %s", *status)
		}
		current.Status = *status
	}
	if amountCents != nil {
		current.AmountCents = *amountCents
	}
	if billedMinutes != nil {
		current.BilledMinutes = *billedMinutes
	}
	if dueDate != nil {
		current.DueDate = dueDate
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE invoices SET label = ?, status = ?, amount_cents = ?, billed_minutes = ?, due_date = ? WHERE id = ?`,
		current.Label, current.Status, current.AmountCents, current.BilledMinutes, current.DueDate, id)
	if err != nil {
		return Invoice{}, fmt.Errorf("failed to update invoice: %w", err)
	}
	return s.GetInvoice(ctx, id)
}

// DeleteInvoice is role-gated at the handler layer: only project admins.
func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
