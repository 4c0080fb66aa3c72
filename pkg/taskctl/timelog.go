package taskctl

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
)

// StartTimeLog opens a work session on a task. A (task, user) pair can
// have only one active session.
func (e *Engine) StartTimeLog(ctx context.Context, taskID, userID uint) (*model.TimeLog, error) {
	log := &model.TimeLog{
		TaskID:    taskID,
		UserID:    userID,
		StartTime: time.Now(),
		IsActive:  true,
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := e.loadTask(tx, taskID); err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&model.TimeLog{}).
			Where("task_id = ? AND user_id = ? AND is_active = ?", taskID, userID, true).
			Count(&active).Error; err != nil {
			return apperr.Internal(err, "count active time logs for task %d", taskID)
		}
		if active > 0 {
			return apperr.Conflict("user %d already has an active time log on task %d", userID, taskID)
		}

		if err := tx.Create(log).Error; err != nil {
			return apperr.Internal(err, "create time log for task %d", taskID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// StopTimeLog closes a session: computes the rounded duration in minutes,
// deactivates the log, and folds the result into the task's actual hours.
// Stopping an already-inactive log is a conflict, so the aggregate is never
// double-counted.
func (e *Engine) StopTimeLog(ctx context.Context, logID, userID uint) (*model.TimeLog, error) {
	var log *model.TimeLog
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		log = &model.TimeLog{}
		if err := tx.First(log, logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("time log %d not found", logID)
			}
			return apperr.Internal(err, "load time log %d", logID)
		}
		if log.UserID != userID {
			return apperr.Validation("time log %d belongs to another user", logID)
		}
		if !log.IsActive {
			return apperr.Conflict("time log %d is already stopped", logID)
		}

		now := time.Now()
		minutes := int(math.Round(now.Sub(log.StartTime).Minutes()))
		log.EndTime = &now
		log.DurationMinutes = &minutes
		log.IsActive = false
		if err := tx.Save(log).Error; err != nil {
			return apperr.Internal(err, "save time log %d", logID)
		}

		task, err := e.loadTask(tx, log.TaskID)
		if err != nil {
			return err
		}
		if err := e.recomputeActualHours(tx, task); err != nil {
			return err
		}
		if err := tx.Model(task).Update("actual_hours", task.ActualHours).Error; err != nil {
			return apperr.Internal(err, "save task %d actual hours", task.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// ListTimeLogs returns a task's sessions, newest first.
func (e *Engine) ListTimeLogs(ctx context.Context, taskID uint) ([]model.TimeLog, error) {
	var logs []model.TimeLog
	err := e.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("start_time DESC").
		Find(&logs).Error
	if err != nil {
		return nil, apperr.Internal(err, "list time logs for task %d", taskID)
	}
	return logs, nil
}

// recomputeActualHours rebuilds the materialized aggregate from scratch:
// the sum in hours of all finished sessions. Recomputing instead of
// incrementing keeps the value correct no matter which call site triggered
// the change.
func (e *Engine) recomputeActualHours(tx *gorm.DB, task *model.Task) error {
	var totalMinutes *float64
	err := tx.Model(&model.TimeLog{}).
		Where("task_id = ? AND is_active = ? AND duration_minutes IS NOT NULL", task.ID, false).
		Select("SUM(duration_minutes)").
		Scan(&totalMinutes).Error
	if err != nil {
		return apperr.Internal(err, "sum time logs for task %d", task.ID)
	}
	if totalMinutes == nil {
		task.ActualHours = 0
		return nil
	}
	task.ActualHours = *totalMinutes / 60
	return nil
}
