package database

import "time"

// Task types, statuses, priorities and estimate buckets supported by the board.
const (
	TaskTypeBug         = "bug"
	TaskTypeNewFeature  = "new_feature"
	TaskTypeImprovement = "improvement"

	TaskStatusTodo             = "todo"
	TaskStatusInProgress       = "in_progress"
	TaskStatusBlocked          = "blocked"
	TaskStatusWaitingForClient = "waiting_for_client"
	TaskStatusDone             = "done"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

var ValidTaskTypes = map[string]struct{}{
	TaskTypeBug:         {},
	TaskTypeNewFeature:  {},
	TaskTypeImprovement: {},
}

var ValidTaskStatuses = map[string]struct{}{
	TaskStatusTodo:             {},
	TaskStatusInProgress:       {},
	TaskStatusBlocked:          {},
	TaskStatusWaitingForClient: {},
	TaskStatusDone:             {},
}

var ValidTaskPriorities = map[string]struct{}{
	TaskPriorityLow:    {},
	TaskPriorityMedium: {},
	TaskPriorityHigh:   {},
	TaskPriorityUrgent: {},
}

var ValidEstimateBuckets = map[string]struct{}{
	"XS": {}, "S": {}, "M": {}, "L": {}, "XL": {}, "XXL": {},
}

// Sprint statuses. At most one sprint per project is active; activation
// demotes any other active sprint rather than relying on a constraint.
const (
	SprintStatusPlanned   = "planned"
	SprintStatusActive    = "active"
	SprintStatusCompleted = "completed"
	SprintStatusCancelled = "cancelled"
	SprintStatusArchived  = "archived"
)

var ValidSprintStatuses = map[string]struct{}{
	SprintStatusPlanned:   {},
	SprintStatusActive:    {},
	SprintStatusCompleted: {},
	SprintStatusCancelled: {},
	SprintStatusArchived:  {},
}

const (
	EpicStatusOpen       = "open"
	EpicStatusInProgress = "in_progress"
	EpicStatusDone       = "done"
	EpicStatusArchived   = "archived"
)

var ValidEpicStatuses = map[string]struct{}{
	EpicStatusOpen:       {},
	EpicStatusInProgress: {},
	EpicStatusDone:       {},
	EpicStatusArchived:   {},
}

const (
	TimeCategoryProjectManagement    = "project_management"
	TimeCategoryDevelopment          = "development"
	TimeCategoryDocumentation        = "documentation"
	TimeCategoryMaintenanceEvolution = "maintenance_evolution"
)

var ValidTimeCategories = map[string]struct{}{
	TimeCategoryProjectManagement:    {},
	TimeCategoryDevelopment:          {},
	TimeCategoryDocumentation:        {},
	TimeCategoryMaintenanceEvolution: {},
}

const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

var ValidInvoiceStatuses = map[string]struct{}{
	InvoiceStatusDraft:     {},
	InvoiceStatusSent:      {},
	InvoiceStatusPaid:      {},
	InvoiceStatusCancelled: {},
}

// Membership roles. Admins manage everything on a project, participants
// work on it, clients get a read-only window limited to client-visible tasks.
const (
	RoleProjectAdmin       = "project_admin"
	RoleProjectParticipant = "project_participant"
	RoleProjectClient      = "project_client"
)

var ValidRoles = map[string]struct{}{
	RoleProjectAdmin:       {},
	RoleProjectParticipant: {},
	RoleProjectClient:      {},
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contactEmail"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Project struct {
	ID          string    `json:"id"`
	ClientID    *string   `json:"clientId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Membership struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
}

type Epic struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Sprint struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	StartDate *string   `json:"startDate"`
	EndDate   *string   `json:"endDate"`
	SortIndex int       `json:"sortIndex"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Task struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"projectId"`
	EpicID          *string   `json:"epicId"`
	SprintID        *string   `json:"sprintId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	Priority        string    `json:"priority"`
	EstimateBucket  *string   `json:"estimateBucket"`
	IsClientVisible bool      `json:"isClientVisible"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type TimeEntry struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"projectId"`
	TaskID          *string `json:"taskId"`
	UserID          string  `json:"userId"`
	Category        string  `json:"category"`
	DurationMinutes int     `json:"durationMinutes"`
	Date            string  `json:"date"`
	Notes           string  `json:"notes"`
}

type Invoice struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"projectId"`
	ClientID      string  `json:"clientId"`
	Label         string  `json:"label"`
	Status        string  `json:"status"`
	AmountCents   int64   `json:"amountCents"`
	Currency      string  `json:"currency"`
	BilledMinutes int     `json:"billedMinutes"`
	IssueDate     string  `json:"issueDate"`
	DueDate       *string `json:"dueDate"`
}
