package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"sprintdesk/database"
)

// SprintAll is the sentinel for "all sprints" in board views. The scoped view
// then shows every task, and backlog drops into a column are rejected because
// there is no concrete sprint to schedule into.
const SprintAll = "all"

// DropSource marks where a drag started.
type DropSource string

const (
	DropSourceBacklog DropSource = "backlog"
	DropSourceKanban  DropSource = "kanban"
)

// ErrAllSprintsSelected rejects backlog drops while the sentinel is selected.
var ErrAllSprintsSelected = errors.New("cannot move to all sprints")

// PartitionTasks splits a project's tasks into the backlog (unscheduled and
// still open) and the sprint-scoped set for the selected sprint. A done task
// that still carries a sprint stays sprint-scoped, never backlog.
func PartitionTasks(tasks []database.Task, selectedSprint string) (backlog, sprintScoped []database.Task) {
	for _, t := range tasks {
		if t.SprintID == nil && t.Status != database.TaskStatusDone {
			backlog = append(backlog, t)
		}
		if selectedSprint == SprintAll {
			sprintScoped = append(sprintScoped, t)
		} else if t.SprintID != nil && *t.SprintID == selectedSprint {
			sprintScoped = append(sprintScoped, t)
		}
	}
	return backlog, sprintScoped
}

// DropTarget is either a kanban column (Status set) or the backlog panel.
type DropTarget struct {
	Backlog bool
	Status  string
}

type dropAction int

const (
	dropActionNone dropAction = iota
	dropActionAssign
	dropActionStatus
	dropActionBacklog
)

// resolveDrop decides which single mutation a drop translates to, without
// touching the store.
func resolveDrop(task database.Task, source DropSource, selectedSprint string, target DropTarget) (dropAction, error) {
	if target.Backlog {
		// Returning to the backlog clears the sprint regardless of origin
		return dropActionBacklog, nil
	}

	if _, ok := database.ValidTaskStatuses[target.Status]; !ok {
		return dropActionNone, fmt.Errorf("invalid target status: %s", target.Status)
	}

	switch source {
	case DropSourceBacklog:
		if selectedSprint == "" || selectedSprint == SprintAll {
			return dropActionNone, ErrAllSprintsSelected
		}
		return dropActionAssign, nil
	case DropSourceKanban:
		if task.Status == target.Status {
			return dropActionNone, nil
		}
		return dropActionStatus, nil
	default:
		return dropActionNone, fmt.Errorf("unknown drop source: %s", source)
	}
}

// BoardService applies drag-and-drop moves between a project's backlog and
// the selected sprint's board, then broadcasts a refresh to connected clients.
type BoardService struct {
	store  *database.Store
	hub    *Hub
	logger *logrus.Logger
}

func NewBoardService(store *database.Store, hub *Hub, logger *logrus.Logger) *BoardService {
	return &BoardService{store: store, hub: hub, logger: logger}
}

// BoardView is the partitioned task list the board renders from.
type BoardView struct {
	Backlog     []database.Task `json:"backlog"`
	SprintTasks []database.Task `json:"sprintTasks"`
}

// View loads a project's tasks and partitions them for the selected sprint.
func (b *BoardService) View(ctx context.Context, projectID, selectedSprint string, clientVisibleOnly bool) (BoardView, error) {
	tasks, err := b.store.ListTasks(ctx, projectID, database.TaskFilter{ClientVisibleOnly: clientVisibleOnly})
	if err != nil {
		return BoardView{}, err
	}
	backlog, scoped := PartitionTasks(tasks, selectedSprint)
	return BoardView{Backlog: backlog, SprintTasks: scoped}, nil
}

// MoveTask reconciles one drop event. Each accepted drop is exactly one
// targeted update; a rejected drop mutates nothing. A no-op drop returns the
// task unchanged without broadcasting.
func (b *BoardService) MoveTask(ctx context.Context, projectID, taskID string, source DropSource, selectedSprint string, target DropTarget) (database.Task, error) {
	task, err := b.store.GetTask(ctx, taskID)
	if err != nil {
		return database.Task{}, err
	}
	if task.ProjectID != projectID {
		return database.Task{}, fmt.Errorf("task %s belongs to a different project", taskID)
	}

	action, err := resolveDrop(task, source, selectedSprint, target)
	if err != nil {
		return database.Task{}, err
	}

	switch action {
	case dropActionNone:
		return task, nil
	case dropActionAssign:
		task, err = b.store.AssignTaskToSprint(ctx, taskID, selectedSprint, target.Status)
	case dropActionStatus:
		task, err = b.store.SetTaskStatus(ctx, taskID, target.Status)
	case dropActionBacklog:
		task, err = b.store.ClearTaskSprint(ctx, taskID)
	}
	if err != nil {
		return database.Task{}, err
	}

	b.logger.WithFields(logrus.Fields{
		"project": projectID,
		"task":    taskID,
		"source":  string(source),
	}).Info("board move applied")

	// The full re-fetch on the client side is the only consistency mechanism,
	// so every applied move triggers a refresh broadcast.
	b.hub.BroadcastRefresh(projectID, "tasks")

	return task, nil
}
