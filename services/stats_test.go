package services

import (
	"testing"

	"sprintdesk/database"
)

func TestAggregateTasks(t *testing.T) {
	tasks := []database.Task{
		{Status: database.TaskStatusTodo},
		{Status: database.TaskStatusDone},
		{Status: database.TaskStatusInProgress},
	}

	got := AggregateTasks(tasks)

	if got.Total != 3 {
		t.Errorf("expected total 3, got %d", got.Total)
	}
	if got.OpenCount != 2 {
		t.Errorf("expected open count 2, got %d", got.OpenCount)
	}
	want := map[string]int{"todo": 1, "done": 1, "in_progress": 1}
	for status, count := range want {
		if got.ByStatus[status] != count {
			t.Errorf("expected %d %s, got %d", count, status, got.ByStatus[status])
		}
	}
}

func TestAggregateTasks_OrderIndependent(t *testing.T) {
	tasks := []database.Task{
		{Status: database.TaskStatusTodo},
		{Status: database.TaskStatusTodo},
		{Status: database.TaskStatusDone},
		{Status: database.TaskStatusBlocked},
		{Status: database.TaskStatusWaitingForClient},
	}
	reversed := make([]database.Task, len(tasks))
	for i, task := range tasks {
		reversed[len(tasks)-1-i] = task
	}

	a := AggregateTasks(tasks)
	b := AggregateTasks(reversed)

	if a.Total != b.Total || a.OpenCount != b.OpenCount {
		t.Fatalf("totals differ by order: %+v vs %+v", a, b)
	}
	for status, count := range a.ByStatus {
		if b.ByStatus[status] != count {
			t.Errorf("by-status counts differ for %s: %d vs %d", status, count, b.ByStatus[status])
		}
	}
}

func TestAggregateTasks_Empty(t *testing.T) {
	got := AggregateTasks(nil)
	if got.Total != 0 || got.OpenCount != 0 || len(got.ByStatus) != 0 {
		t.Errorf("expected zero summary, got %+v", got)
	}
}

func TestAggregateTimeEntries(t *testing.T) {
	task := "task-1"
	entries := []database.TimeEntry{
		{UserID: "u1", Category: database.TimeCategoryDevelopment, DurationMinutes: 60, TaskID: &task},
		{UserID: "u1", Category: database.TimeCategoryDocumentation, DurationMinutes: 30},
		{UserID: "u2", Category: database.TimeCategoryDevelopment, DurationMinutes: 45, TaskID: &task},
	}

	got := AggregateTimeEntries(entries)

	if got.TotalMinutes != 135 {
		t.Errorf("expected 135 total minutes, got %d", got.TotalMinutes)
	}
	if got.ByUser["u1"] != 90 || got.ByUser["u2"] != 45 {
		t.Errorf("unexpected by-user sums: %v", got.ByUser)
	}
	if got.ByCategory[database.TimeCategoryDevelopment] != 105 {
		t.Errorf("expected 105 development minutes, got %d", got.ByCategory[database.TimeCategoryDevelopment])
	}
	if got.ByTask[task] != 105 {
		t.Errorf("expected 105 minutes on task-1, got %d", got.ByTask[task])
	}
	if len(got.ByTask) != 1 {
		t.Errorf("entries without a task must not appear in by-task: %v", got.ByTask)
	}
}

func TestAggregateBilling(t *testing.T) {
	tests := []struct {
		name         string
		logged       int
		invoices     []database.Invoice
		wantBilled   int
		wantUnbilled int
	}{
		{
			name:         "partial coverage",
			logged:       100,
			invoices:     []database.Invoice{{Status: database.InvoiceStatusSent, BilledMinutes: 40}},
			wantBilled:   40,
			wantUnbilled: 60,
		},
		{
			name:   "over-billed clamps at zero",
			logged: 100,
			invoices: []database.Invoice{
				{Status: database.InvoiceStatusPaid, BilledMinutes: 150},
			},
			wantBilled:   150,
			wantUnbilled: 0,
		},
		{
			name:   "cancelled invoices are ignored",
			logged: 100,
			invoices: []database.Invoice{
				{Status: database.InvoiceStatusCancelled, BilledMinutes: 80},
				{Status: database.InvoiceStatusDraft, BilledMinutes: 20},
			},
			wantBilled:   20,
			wantUnbilled: 80,
		},
		{
			name:         "no invoices",
			logged:       50,
			invoices:     nil,
			wantBilled:   0,
			wantUnbilled: 50,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AggregateBilling(tc.logged, tc.invoices)
			if got.BilledMinutes != tc.wantBilled {
				t.Errorf("expected billed %d, got %d", tc.wantBilled, got.BilledMinutes)
			}
			if got.UnbilledMinutes != tc.wantUnbilled {
				t.Errorf("expected unbilled %d, got %d", tc.wantUnbilled, got.UnbilledMinutes)
			}
			if got.UnbilledMinutes < 0 {
				t.Error("unbilled minutes must never be negative")
			}
		})
	}
}

func TestAggregateBilling_Coverage(t *testing.T) {
	got := AggregateBilling(200, []database.Invoice{{Status: database.InvoiceStatusSent, BilledMinutes: 50}})
	if got.Coverage != 0.25 {
		t.Errorf("expected coverage 0.25, got %f", got.Coverage)
	}

	zero := AggregateBilling(0, nil)
	if zero.Coverage != 0 {
		t.Errorf("expected zero coverage with no logged time, got %f", zero.Coverage)
	}
}
