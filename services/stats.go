package services

import "sprintdesk/database"

// Pure in-memory reductions over already-fetched rows. Nothing here touches
// the database, so the handlers can reuse a single list fetch per request.

// TaskStatSummary counts a task list by status.
type TaskStatSummary struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"byStatus"`
	OpenCount int            `json:"openCount"`
}

// AggregateTasks reduces a task list to totals. Order-independent.
func AggregateTasks(tasks []database.Task) TaskStatSummary {
	summary := TaskStatSummary{ByStatus: make(map[string]int)}
	for _, t := range tasks {
		summary.Total++
		summary.ByStatus[t.Status]++
		if t.Status != database.TaskStatusDone {
			summary.OpenCount++
		}
	}
	return summary
}

// TimeStatSummary sums logged minutes, grouped three ways.
type TimeStatSummary struct {
	TotalMinutes int            `json:"totalMinutes"`
	ByUser       map[string]int `json:"byUser"`
	ByCategory   map[string]int `json:"byCategory"`
	ByTask       map[string]int `json:"byTask"`
}

// AggregateTimeEntries sums duration_minutes keyed by user, category and
// task. Entries without a task are left out of the by-task grouping.
func AggregateTimeEntries(entries []database.TimeEntry) TimeStatSummary {
	summary := TimeStatSummary{
		ByUser:     make(map[string]int),
		ByCategory: make(map[string]int),
		ByTask:     make(map[string]int),
	}
	for _, e := range entries {
		summary.TotalMinutes += e.DurationMinutes
		summary.ByUser[e.UserID] += e.DurationMinutes
		summary.ByCategory[e.Category] += e.DurationMinutes
		if e.TaskID != nil {
			summary.ByTask[*e.TaskID] += e.DurationMinutes
		}
	}
	return summary
}

// BillingSummary compares logged time against invoiced time.
type BillingSummary struct {
	LoggedMinutes   int     `json:"loggedMinutes"`
	BilledMinutes   int     `json:"billedMinutes"`
	UnbilledMinutes int     `json:"unbilledMinutes"`
	Coverage        float64 `json:"coverage"`
}

// AggregateBilling sums billed minutes from non-cancelled invoices and clamps
// unbilled time at zero: over-billing never yields a negative remainder.
func AggregateBilling(loggedMinutes int, invoices []database.Invoice) BillingSummary {
	billed := 0
	for _, inv := range invoices {
		if inv.Status == database.InvoiceStatusCancelled {
			continue
		}
		billed += inv.BilledMinutes
	}

	unbilled := loggedMinutes - billed
	if unbilled < 0 {
		unbilled = 0
	}

	coverage := 0.0
	if loggedMinutes > 0 {
		coverage = float64(billed) / float64(loggedMinutes)
	}

	return BillingSummary{
		LoggedMinutes:   loggedMinutes,
		BilledMinutes:   billed,
		UnbilledMinutes: unbilled,
		Coverage:        coverage,
	}
}
