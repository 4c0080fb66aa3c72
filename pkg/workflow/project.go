package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
	"github.com/build-lab/girder/pkg/authz"
	"github.com/build-lab/girder/pkg/event"
)

type CreateProjectInput struct {
	Name             string
	Description      *string
	Budget           float64
	ClientID         uint
	ProjectManagerID uint
	StartDate        time.Time
	EndDate          time.Time
}

// CreateProject creates a project in Planning.
func (e *Engine) CreateProject(ctx context.Context, in CreateProjectInput, actor Actor) (*model.Project, error) {
	if in.Budget < 0 {
		return nil, apperr.Validation("budget cannot be negative")
	}
	if !in.StartDate.Before(in.EndDate) {
		return nil, apperr.Validation("start date must be before end date")
	}

	project := &model.Project{
		Name:             in.Name,
		Description:      in.Description,
		Budget:           in.Budget,
		Status:           model.ProjectStatusPlanning,
		ClientID:         in.ClientID,
		ProjectManagerID: in.ProjectManagerID,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		CreatedByID:      actor.ID,
	}

	var events []event.Event
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := e.loadUser(tx, in.ClientID); err != nil {
			return err
		}
		if _, err := e.loadUser(tx, in.ProjectManagerID); err != nil {
			return err
		}
		if err := tx.Create(project).Error; err != nil {
			return apperr.Internal(err, "create project %q", in.Name)
		}
		events = append(events, event.New(event.ProjectCreated, e.stakeholders(tx, project),
			map[string]any{"projectName": project.Name, "budget": project.Budget}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAll(ctx, events)
	return project, nil
}

// UpdateStatus applies a user-requested status change through the
// transition table, including the director-only gate on Closed.
func (e *Engine) UpdateStatus(ctx context.Context, projectID uint, to model.ProjectStatus, actor Actor) (*model.Project, error) {
	var project *model.Project
	var events []event.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = e.loadProject(tx, projectID, true)
		if err != nil {
			return err
		}
		from := project.Status
		if err := ValidateTransition(from, to, actor.Role); err != nil {
			return err
		}
		project.Status = to
		if err := tx.Model(project).Update("status", to).Error; err != nil {
			return apperr.Internal(err, "update project %d status", projectID)
		}
		statusTransitions.WithLabelValues(string(from), string(to)).Inc()
		events = append(events, event.New(event.ProjectStatusChanged, e.stakeholders(tx, project),
			map[string]any{"projectName": project.Name, "from": from, "to": to}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAll(ctx, events)
	return project, nil
}

// DeleteProject removes a project. Directors only, and only when the
// project owns no tasks.
func (e *Engine) DeleteProject(ctx context.Context, projectID uint, actor Actor) error {
	if !authz.RoleAllowed(authz.ProjectDelete, actor.Role) {
		return apperr.Authorization("only a director can delete a project")
	}

	var events []event.Event
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := e.loadProject(tx, projectID, true)
		if err != nil {
			return err
		}

		var tasks int64
		if err := tx.Model(&model.Task{}).Where("project_id = ?", projectID).Count(&tasks).Error; err != nil {
			return apperr.Internal(err, "count tasks for project %d", projectID)
		}
		if tasks > 0 {
			return apperr.Conflict("project %d still owns %d tasks", projectID, tasks)
		}

		recipients := e.stakeholders(tx, project)
		if err := tx.Delete(project).Error; err != nil {
			return apperr.Internal(err, "delete project %d", projectID)
		}
		events = append(events, event.New(event.ProjectDeleted, recipients,
			map[string]any{"projectName": project.Name}))
		return nil
	})
	if err != nil {
		return err
	}

	e.publishAll(ctx, events)
	return nil
}

// UpdateActualCost records actual spend. Directors and the project's own
// manager may call it; an over-budget result alerts the manager, the
// client and every director.
func (e *Engine) UpdateActualCost(ctx context.Context, projectID uint, actualCost float64, actor Actor) (*model.Project, error) {
	if actualCost < 0 {
		return nil, apperr.Validation("actual cost cannot be negative")
	}

	var project *model.Project
	var events []event.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = e.loadProject(tx, projectID, true)
		if err != nil {
			return err
		}
		if !authz.RoleAllowed(authz.ProjectCostUpdate, actor.Role) && project.ProjectManagerID != actor.ID {
			return apperr.Authorization("only a director or the project manager can update the actual cost")
		}

		project.ActualCost = actualCost
		if err := tx.Model(project).Update("actual_cost", actualCost).Error; err != nil {
			return apperr.Internal(err, "update project %d actual cost", projectID)
		}

		if actualCost > project.Budget {
			over := actualCost - project.Budget
			overPct := 0.0
			if project.Budget > 0 {
				overPct = over / project.Budget * 100
			}
			recipients := e.stakeholders(tx, project)
			var directors []model.User
			if err := tx.Where("role = ? AND status = ?", model.RoleDirector, model.UserStatusActive).
				Find(&directors).Error; err != nil {
				return apperr.Internal(err, "list directors")
			}
			for i := range directors {
				recipients = append(recipients, event.Recipient{Name: directors[i].Name, Email: directors[i].Email})
			}
			events = append(events, event.New(event.BudgetExceeded, recipients, map[string]any{
				"projectName":          project.Name,
				"overBudgetAmount":     over,
				"overBudgetPercentage": overPct,
			}))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAll(ctx, events)
	return project, nil
}
