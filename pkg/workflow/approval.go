package workflow

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
	"github.com/build-lab/girder/pkg/authz"
	"github.com/build-lab/girder/pkg/event"
)

// Budget thresholds for the approval chain.
const (
	singleLevelBudgetMax = 500_000
	twoLevelBudgetMax    = 1_000_000
)

// ChainForBudget returns the approval levels a project of the given budget
// must pass, in the order the records are created.
func ChainForBudget(budget float64) []model.Role {
	switch {
	case budget > twoLevelBudgetMax:
		return []model.Role{model.RoleProjectManager, model.RoleDirector, model.RoleSeniorDirector}
	case budget > singleLevelBudgetMax:
		return []model.Role{model.RoleProjectManager, model.RoleDirector}
	default:
		return []model.Role{model.RoleDirector}
	}
}

// RequestApproval opens an approval round for a Planning project: one
// Pending record per required level, all created in one transaction. A
// level with no active user of the matching role fails the whole call; a
// round must never complete "unanimously" with a required sign-off missing.
func (e *Engine) RequestApproval(ctx context.Context, projectID, requesterID uint) ([]model.ProjectApproval, error) {
	var created []model.ProjectApproval
	var events []event.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := e.loadProject(tx, projectID, true)
		if err != nil {
			return err
		}
		if project.Status != model.ProjectStatusPlanning {
			return apperr.Validation("approval can only be requested while the project is in Planning, current status is %q", project.Status)
		}

		var pending int64
		if err := tx.Model(&model.ProjectApproval{}).
			Where("project_id = ? AND status = ?", projectID, model.ApprovalStatusPending).
			Count(&pending).Error; err != nil {
			return apperr.Internal(err, "count pending approvals for project %d", projectID)
		}
		if pending > 0 {
			return apperr.Conflict("project %d already has a pending approval round", projectID)
		}

		var lastRound int64
		if err := tx.Model(&model.ProjectApproval{}).
			Where("project_id = ?", projectID).
			Select("COALESCE(MAX(round), 0)").
			Scan(&lastRound).Error; err != nil {
			return apperr.Internal(err, "find last approval round for project %d", projectID)
		}
		round := uint(lastRound) + 1

		for _, level := range ChainForBudget(project.Budget) {
			var approver model.User
			err := tx.Where("role = ? AND status = ?", level, model.UserStatusActive).
				Order("id").
				First(&approver).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Validation("no active %s available to approve project %q", level, project.Name)
			}
			if err != nil {
				return apperr.Internal(err, "find approver for level %s", level)
			}

			approval := model.ProjectApproval{
				ProjectID:     projectID,
				ApproverID:    approver.ID,
				Round:         round,
				ApprovalLevel: level,
				Status:        model.ApprovalStatusPending,
			}
			if err := tx.Create(&approval).Error; err != nil {
				return apperr.Internal(err, "create approval record for level %s", level)
			}
			created = append(created, approval)

			events = append(events, event.New(event.ApprovalRequested,
				[]event.Recipient{{Name: approver.Name, Email: approver.Email}},
				map[string]any{
					"projectName":   project.Name,
					"budget":        project.Budget,
					"approvalLevel": level.String(),
					"requestedBy":   requesterID,
				}))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAll(ctx, events)
	return created, nil
}

// ApprovalOutcome is the result of processing one decision. Project is
// always set and reflects the project's status after the decision; an
// interim approval leaves it in Planning.
type ApprovalOutcome struct {
	Approval *model.ProjectApproval
	Project  *model.Project
	// Finalized is true when this decision resolved the whole round.
	Finalized bool
}

// ProcessApproval records one approver's decision. A single rejection
// collapses the round: every other Pending record becomes Rejected and the
// project goes On Hold. The project advances to In Progress only when every
// record in the round is Approved. The aggregate check runs inside the same
// transaction that holds the project row lock, so two concurrent approvers
// cannot both see an unfinished round or both finalize it.
func (e *Engine) ProcessApproval(ctx context.Context, approvalID, approverID uint, decision model.ApprovalStatus, comments string) (*ApprovalOutcome, error) {
	if decision != model.ApprovalStatusApproved && decision != model.ApprovalStatusRejected {
		return nil, apperr.Validation("decision must be %q or %q", model.ApprovalStatusApproved, model.ApprovalStatusRejected)
	}

	outcome := &ApprovalOutcome{}
	var events []event.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var approval model.ProjectApproval
		if err := tx.First(&approval, approvalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("approval %d not found", approvalID)
			}
			return apperr.Internal(err, "load approval %d", approvalID)
		}

		// Lock the project row before touching the round: the aggregate
		// check below must be exactly-once per round.
		project, err := e.loadProject(tx, approval.ProjectID, true)
		if err != nil {
			return err
		}
		outcome.Project = project

		if approval.Status != model.ApprovalStatusPending {
			return apperr.Conflict("approval %d is already %s", approvalID, approval.Status)
		}
		if approval.ApproverID != approverID {
			return apperr.Authorization("approval %d is assigned to another approver", approvalID)
		}

		now := time.Now()
		approval.Status = decision
		approval.Comments = comments
		approval.ApprovedAt = &now
		if err := tx.Save(&approval).Error; err != nil {
			return apperr.Internal(err, "save approval %d", approvalID)
		}
		outcome.Approval = &approval
		approvalsProcessed.WithLabelValues(string(decision)).Inc()

		if decision == model.ApprovalStatusRejected {
			// The round collapses: one veto rejects everything pending.
			if err := tx.Model(&model.ProjectApproval{}).
				Where("project_id = ? AND round = ? AND status = ?",
					approval.ProjectID, approval.Round, model.ApprovalStatusPending).
				Updates(map[string]any{"status": model.ApprovalStatusRejected, "approved_at": now}).Error; err != nil {
				return apperr.Internal(err, "collapse approval round for project %d", approval.ProjectID)
			}
			if err := e.setStatus(tx, project, model.ProjectStatusOnHold); err != nil {
				return err
			}
			outcome.Finalized = true

			events = append(events, event.New(event.ApprovalDecided, e.stakeholders(tx, project),
				map[string]any{
					"projectName": project.Name,
					"decision":    model.ApprovalStatusRejected,
					"comments":    comments,
				}))
			return nil
		}

		// Approved: re-read this round from the locked snapshot. Earlier
		// collapsed rounds keep their Rejected records, so the aggregate
		// must not see them.
		var all []model.ProjectApproval
		if err := tx.Where("project_id = ? AND round = ?", approval.ProjectID, approval.Round).
			Find(&all).Error; err != nil {
			return apperr.Internal(err, "load approval round %d for project %d", approval.Round, approval.ProjectID)
		}
		pending, approved := 0, 0
		for i := range all {
			switch all[i].Status {
			case model.ApprovalStatusPending:
				pending++
			case model.ApprovalStatusApproved:
				approved++
			}
		}

		if pending == 0 && approved == len(all) {
			if err := e.setStatus(tx, project, model.ProjectStatusInProgress); err != nil {
				return err
			}
			outcome.Finalized = true
			events = append(events, event.New(event.ProjectApproved, e.stakeholders(tx, project),
				map[string]any{"projectName": project.Name}))
			return nil
		}

		events = append(events, event.New(event.ApprovalDecided, e.stakeholders(tx, project),
			map[string]any{
				"projectName": project.Name,
				"decision":    model.ApprovalStatusApproved,
				"comments":    comments,
			}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAll(ctx, events)
	return outcome, nil
}

// PendingApprovals is the approver's work queue, oldest first.
func (e *Engine) PendingApprovals(ctx context.Context, userID uint) ([]model.ProjectApproval, error) {
	var approvals []model.ProjectApproval
	err := e.db.WithContext(ctx).
		Where("approver_id = ? AND status = ?", userID, model.ApprovalStatusPending).
		Order("created_at").
		Find(&approvals).Error
	if err != nil {
		return nil, apperr.Internal(err, "list pending approvals for user %d", userID)
	}
	return approvals, nil
}

// ApproveProject is the expedited path: a director moves a Planning project
// straight to In Progress, bypassing the multi-level round.
func (e *Engine) ApproveProject(ctx context.Context, projectID uint, actor Actor) (*model.Project, error) {
	if !authz.RoleAllowed(authz.ProjectApproveOverride, actor.Role) {
		return nil, apperr.Authorization("only a director can approve a project directly")
	}

	var project *model.Project
	var events []event.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = e.loadProject(tx, projectID, true)
		if err != nil {
			return err
		}
		if project.Status != model.ProjectStatusPlanning {
			return apperr.Validation("direct approval requires Planning status, current status is %q", project.Status)
		}
		if err := e.setStatus(tx, project, model.ProjectStatusInProgress); err != nil {
			return err
		}
		events = append(events, event.New(event.ProjectApproved, e.stakeholders(tx, project),
			map[string]any{"projectName": project.Name}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAll(ctx, events)
	return project, nil
}

// setStatus writes a table-validated status change. Workflow-internal
// transitions are made by the engine itself, so the role gate does not
// apply here; callers that act on behalf of a user go through
// UpdateStatus instead.
func (e *Engine) setStatus(tx *gorm.DB, project *model.Project, to model.ProjectStatus) error {
	if !transitionAllowed(project.Status, to) {
		return apperr.Validation("invalid status transition from %q to %q", project.Status, to)
	}
	from := project.Status
	project.Status = to
	if err := tx.Model(project).Update("status", to).Error; err != nil {
		return apperr.Internal(err, "update project %d status", project.ID)
	}
	statusTransitions.WithLabelValues(string(from), string(to)).Inc()
	return nil
}
