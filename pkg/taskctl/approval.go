package taskctl

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
	"github.com/build-lab/girder/pkg/event"
)

// RequestTaskApproval opens a sign-off request on a task. At most one
// Pending request per task.
func (e *Engine) RequestTaskApproval(ctx context.Context, taskID, requesterID uint) (*model.TaskApproval, error) {
	var approval *model.TaskApproval
	var events []event.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := e.loadTask(tx, taskID)
		if err != nil {
			return err
		}

		var pending int64
		if err := tx.Model(&model.TaskApproval{}).
			Where("task_id = ? AND status = ?", taskID, model.ApprovalStatusPending).
			Count(&pending).Error; err != nil {
			return apperr.Internal(err, "count pending approvals for task %d", taskID)
		}
		if pending > 0 {
			return apperr.Conflict("task %d already has a pending approval", taskID)
		}

		approval = &model.TaskApproval{
			TaskID:        taskID,
			RequestedByID: requesterID,
			Status:        model.ApprovalStatusPending,
			RequestedAt:   time.Now(),
		}
		if err := tx.Create(approval).Error; err != nil {
			return apperr.Internal(err, "create task approval for task %d", taskID)
		}

		// Notify the project manager, who is the one allowed to respond.
		var project model.Project
		if err := tx.First(&project, task.ProjectID).Error; err == nil {
			var manager model.User
			if err := tx.First(&manager, project.ProjectManagerID).Error; err == nil {
				var requester model.User
				requesterName := ""
				if err := tx.First(&requester, requesterID).Error; err == nil {
					requesterName = requester.Name
				}
				events = append(events, event.New(event.TaskApprovalRequested,
					[]event.Recipient{{Name: manager.Name, Email: manager.Email}},
					map[string]any{"taskName": task.Name, "requestedBy": requesterName}))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAll(ctx, events)
	return approval, nil
}

// RespondToTaskApproval records the project manager's decision on a
// pending task approval and notifies the requester.
func (e *Engine) RespondToTaskApproval(ctx context.Context, approvalID uint, decision model.ApprovalStatus, comments string, actor Actor) (*model.TaskApproval, error) {
	if decision != model.ApprovalStatusApproved && decision != model.ApprovalStatusDeclined {
		return nil, apperr.Validation("decision must be %q or %q", model.ApprovalStatusApproved, model.ApprovalStatusDeclined)
	}

	var approval *model.TaskApproval
	var events []event.Event

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		approval = &model.TaskApproval{}
		if err := tx.First(approval, approvalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("task approval %d not found", approvalID)
			}
			return apperr.Internal(err, "load task approval %d", approvalID)
		}

		task, err := e.loadTask(tx, approval.TaskID)
		if err != nil {
			return err
		}
		ok, err := e.canUserApproveTask(tx, task, actor)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Authorization("only the project manager can respond to task approvals")
		}
		if approval.Status != model.ApprovalStatusPending {
			return apperr.Conflict("task approval %d is already %s", approvalID, approval.Status)
		}

		now := time.Now()
		approval.Status = decision
		approval.Comments = comments
		approval.ApprovedByID = actor.ID
		approval.RespondedAt = &now
		if err := tx.Save(approval).Error; err != nil {
			return apperr.Internal(err, "save task approval %d", approvalID)
		}

		var requester model.User
		if err := tx.First(&requester, approval.RequestedByID).Error; err == nil {
			events = append(events, event.New(event.TaskApprovalResponded,
				[]event.Recipient{{Name: requester.Name, Email: requester.Email}},
				map[string]any{"taskName": task.Name, "status": decision, "comments": comments}))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publishAll(ctx, events)
	return approval, nil
}

// canUserApproveTask reports whether the actor manages the task's project.
func (e *Engine) canUserApproveTask(tx *gorm.DB, task *model.Task, actor Actor) (bool, error) {
	var project model.Project
	if err := tx.First(&project, task.ProjectID).Error; err != nil {
		return false, apperr.Internal(err, "load project %d", task.ProjectID)
	}
	return project.ProjectManagerID == actor.ID, nil
}
