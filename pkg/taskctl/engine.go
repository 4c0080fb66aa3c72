// Package taskctl is the task dependency and status engine: it maintains
// the directed dependency graph between tasks of a project, rejects cycles,
// and gates status transitions on completed prerequisites.
package taskctl

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
	"github.com/build-lab/girder/pkg/event"
)

// Actor is the authenticated caller, as supplied by the identity middleware.
type Actor struct {
	ID   uint
	Role model.Role
}

type Engine struct {
	db   *gorm.DB
	sink event.Sink
}

func NewEngine(db *gorm.DB, sink event.Sink) *Engine {
	if sink == nil {
		sink = event.Discard{}
	}
	return &Engine{db: db, sink: sink}
}

// lockProject locks the project row for the duration of a dependency-graph
// mutation. Two concurrent task updates that are each acyclic on their own
// could otherwise commit a combined cycle; serializing on the project row
// closes that window. SQLite has no SELECT ... FOR UPDATE.
func lockProject(tx *gorm.DB, projectID uint) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var project model.Project
	if err := q.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("project %d not found", projectID)
		}
		return apperr.Internal(err, "load project %d", projectID)
	}
	return nil
}

func (e *Engine) loadTask(tx *gorm.DB, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := tx.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task %d not found", taskID)
		}
		return nil, apperr.Internal(err, "load task %d", taskID)
	}
	return &task, nil
}

type CreateTaskInput struct {
	ProjectID      uint
	Name           string
	Description    *string
	AssignedToID   uint
	Priority       model.TaskPriority
	EstimatedHours float64
	DueDate        *time.Time
	// DependsOn are the IDs of prerequisite tasks.
	DependsOn []uint
}

// CreateTask creates a task and its dependency edges in one transaction.
func (e *Engine) CreateTask(ctx context.Context, in CreateTaskInput, actor Actor) (*model.Task, error) {
	if in.Priority == "" {
		in.Priority = model.TaskPriorityMedium
	}

	task := &model.Task{
		ProjectID:      in.ProjectID,
		Name:           in.Name,
		Description:    in.Description,
		Status:         model.TaskStatusNotStarted,
		Priority:       in.Priority,
		EstimatedHours: in.EstimatedHours,
		DueDate:        in.DueDate,
		AssignedToID:   in.AssignedToID,
		CreatedByID:    actor.ID,
	}

	var events []event.Event
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, in.ProjectID); err != nil {
			return err
		}
		if err := tx.Create(task).Error; err != nil {
			return apperr.Internal(err, "create task %q", in.Name)
		}
		if err := e.replaceDependencies(tx, task, in.DependsOn); err != nil {
			return err
		}

		if in.AssignedToID != 0 {
			var assignee model.User
			if err := tx.First(&assignee, in.AssignedToID).Error; err == nil {
				var project model.Project
				projectName := ""
				if err := tx.First(&project, task.ProjectID).Error; err == nil {
					projectName = project.Name
				}
				events = append(events, event.New(event.TaskAssigned,
					[]event.Recipient{{Name: assignee.Name, Email: assignee.Email}},
					map[string]any{"taskName": task.Name, "projectName": projectName}))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAll(ctx, events)
	return task, nil
}

// UpdateTaskInput carries only the fields to change; nil means untouched.
type UpdateTaskInput struct {
	Name                 *string
	Description          *string
	Status               *model.TaskStatus
	Priority             *model.TaskPriority
	CompletionPercentage *uint8
	EstimatedHours       *float64
	DueDate              *time.Time
	AssignedToID         *uint
	// DependsOn, when non-nil, fully replaces the dependency edge set.
	DependsOn *[]uint
}

// UpdateTask mutates the task row and, when DependsOn is supplied, replaces
// its dependency edges in the same transaction, so a failed dependency
// validation leaves nothing applied.
//
//nolint:gocyclo // field-by-field patch application
func (e *Engine) UpdateTask(ctx context.Context, taskID uint, in UpdateTaskInput, actor Actor) (*model.Task, error) {
	var task *model.Task
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = e.loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := lockProject(tx, task.ProjectID); err != nil {
			return err
		}
		if err := e.canMutateTask(tx, task, actor); err != nil {
			return err
		}

		if in.Name != nil {
			task.Name = *in.Name
		}
		if in.Description != nil {
			task.Description = in.Description
		}
		if in.Priority != nil {
			task.Priority = *in.Priority
		}
		if in.EstimatedHours != nil {
			task.EstimatedHours = *in.EstimatedHours
		}
		if in.DueDate != nil {
			task.DueDate = in.DueDate
		}
		if in.AssignedToID != nil {
			task.AssignedToID = *in.AssignedToID
		}

		if in.DependsOn != nil {
			if err := e.replaceDependencies(tx, task, *in.DependsOn); err != nil {
				return err
			}
		}

		completionChanged := false
		if in.Status != nil && *in.Status != task.Status {
			if err := e.gateStatusChange(tx, task, *in.Status); err != nil {
				return err
			}
			task.Status = *in.Status
			// Completion defaults when the caller did not supply one.
			if in.CompletionPercentage == nil {
				switch *in.Status {
				case model.TaskStatusCompleted:
					task.CompletionPercentage = 100
					completionChanged = true
				case model.TaskStatusNotStarted:
					task.CompletionPercentage = 0
					completionChanged = true
				}
			}
			taskTransitions.WithLabelValues(string(*in.Status)).Inc()
		}
		if in.CompletionPercentage != nil {
			if *in.CompletionPercentage > 100 {
				return apperr.Validation("completion percentage must be between 0 and 100")
			}
			task.CompletionPercentage = *in.CompletionPercentage
			completionChanged = true
		}

		if completionChanged {
			if err := e.recomputeActualHours(tx, task); err != nil {
				return err
			}
		}

		if err := tx.Save(task).Error; err != nil {
			return apperr.Internal(err, "save task %d", taskID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task. Creator or project manager only, and only
// when no other task depends on it.
func (e *Engine) DeleteTask(ctx context.Context, taskID uint, actor Actor) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := e.loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := lockProject(tx, task.ProjectID); err != nil {
			return err
		}
		if err := e.canDeleteTask(tx, task, actor); err != nil {
			return err
		}

		var dependents int64
		if err := tx.Model(&model.TaskDependency{}).
			Where("depends_on_task_id = ?", taskID).
			Count(&dependents).Error; err != nil {
			return apperr.Internal(err, "count dependents of task %d", taskID)
		}
		if dependents > 0 {
			return apperr.Conflict("task %d is a prerequisite of %d other tasks", taskID, dependents)
		}

		// Drop the task's own outgoing edges before the row itself.
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskDependency{}).Error; err != nil {
			return apperr.Internal(err, "delete dependency edges of task %d", taskID)
		}
		if err := tx.Delete(task).Error; err != nil {
			return apperr.Internal(err, "delete task %d", taskID)
		}
		return nil
	})
}

// GetTask loads a task with its dependency edges.
func (e *Engine) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	err := e.db.WithContext(ctx).Preload("Dependencies").First(&task, taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task %d not found", taskID)
		}
		return nil, apperr.Internal(err, "load task %d", taskID)
	}
	return &task, nil
}

// ListTasks returns the tasks of a project.
func (e *Engine) ListTasks(ctx context.Context, projectID uint) ([]model.Task, error) {
	var tasks []model.Task
	err := e.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id").
		Find(&tasks).Error
	if err != nil {
		return nil, apperr.Internal(err, "list tasks for project %d", projectID)
	}
	return tasks, nil
}

// TasksDueSoon feeds the deadline scanner: incomplete tasks whose due date
// falls within the window.
func (e *Engine) TasksDueSoon(ctx context.Context, within time.Duration) ([]model.Task, error) {
	deadline := time.Now().Add(within)
	var tasks []model.Task
	err := e.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date <= ? AND status NOT IN ?",
			deadline, []model.TaskStatus{model.TaskStatusCompleted}).
		Find(&tasks).Error
	if err != nil {
		return nil, apperr.Internal(err, "list tasks due soon")
	}
	return tasks, nil
}

// NotifyDeadline publishes a deadline alert for the task's assignee.
func (e *Engine) NotifyDeadline(ctx context.Context, task *model.Task) {
	var assignee model.User
	if err := e.db.WithContext(ctx).First(&assignee, task.AssignedToID).Error; err != nil {
		return
	}
	e.sink.Publish(ctx, event.New(event.TaskDeadlineApproaching,
		[]event.Recipient{{Name: assignee.Name, Email: assignee.Email}},
		map[string]any{"taskName": task.Name, "dueDate": task.DueDate}))
}

func (e *Engine) publishAll(ctx context.Context, events []event.Event) {
	for _, ev := range events {
		e.sink.Publish(ctx, ev)
	}
}

// canMutateTask gates updates: assignee, creator or the owning project's
// manager.
func (e *Engine) canMutateTask(tx *gorm.DB, task *model.Task, actor Actor) error {
	if task.AssignedToID == actor.ID || task.CreatedByID == actor.ID {
		return nil
	}
	var project model.Project
	if err := tx.First(&project, task.ProjectID).Error; err != nil {
		return apperr.Internal(err, "load project %d", task.ProjectID)
	}
	if project.ProjectManagerID == actor.ID {
		return nil
	}
	return apperr.Authorization("task %d can only be updated by its assignee, creator or project manager", task.ID)
}

// canDeleteTask gates deletes: creator or project manager only.
func (e *Engine) canDeleteTask(tx *gorm.DB, task *model.Task, actor Actor) error {
	if task.CreatedByID == actor.ID {
		return nil
	}
	var project model.Project
	if err := tx.First(&project, task.ProjectID).Error; err != nil {
		return apperr.Internal(err, "load project %d", task.ProjectID)
	}
	if project.ProjectManagerID == actor.ID {
		return nil
	}
	return apperr.Authorization("task %d can only be deleted by its creator or project manager", task.ID)
}
