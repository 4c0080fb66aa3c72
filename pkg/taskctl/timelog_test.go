package taskctl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
)

func TestStartTimeLogSingleActiveSession(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	worker := seedUser(t, db, "worker", model.RoleEmployee)
	project := seedProject(t, db, "depot", worker.ID, manager.ID)
	task := seedTask(t, db, project.ID, worker.ID, "dig", model.TaskStatusInProgress)

	log, err := engine.StartTimeLog(ctx, task.ID, worker.ID)
	require.NoError(t, err)
	assert.True(t, log.IsActive)
	assert.Nil(t, log.EndTime)

	_, err = engine.StartTimeLog(ctx, task.ID, worker.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// Another user on the same task is fine.
	_, err = engine.StartTimeLog(ctx, task.ID, manager.ID)
	require.NoError(t, err)

	_, err = engine.StartTimeLog(ctx, 9999, worker.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestStopTimeLogUpdatesActualHours(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	worker := seedUser(t, db, "worker", model.RoleEmployee)
	project := seedProject(t, db, "depot", worker.ID, manager.ID)
	task := seedTask(t, db, project.ID, worker.ID, "dig", model.TaskStatusInProgress)

	log, err := engine.StartTimeLog(ctx, task.ID, worker.ID)
	require.NoError(t, err)

	// Backdate the session so the duration is two hours.
	started := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&model.TimeLog{}).Where("id = ?", log.ID).Update("start_time", started).Error)

	stopped, err := engine.StopTimeLog(ctx, log.ID, worker.ID)
	require.NoError(t, err)
	assert.False(t, stopped.IsActive)
	require.NotNil(t, stopped.DurationMinutes)
	assert.Equal(t, 120, *stopped.DurationMinutes)

	var fresh model.Task
	require.NoError(t, db.First(&fresh, task.ID).Error)
	assert.InDelta(t, 2.0, fresh.ActualHours, 0.001)

	// Stopping again must not double-count.
	_, err = engine.StopTimeLog(ctx, log.ID, worker.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	require.NoError(t, db.First(&fresh, task.ID).Error)
	assert.InDelta(t, 2.0, fresh.ActualHours, 0.001)
}

func TestStopTimeLogOwnership(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	worker := seedUser(t, db, "worker", model.RoleEmployee)
	project := seedProject(t, db, "depot", worker.ID, manager.ID)
	task := seedTask(t, db, project.ID, worker.ID, "dig", model.TaskStatusInProgress)

	log, err := engine.StartTimeLog(ctx, task.ID, worker.ID)
	require.NoError(t, err)

	_, err = engine.StopTimeLog(ctx, log.ID, manager.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = engine.StopTimeLog(ctx, 9999, worker.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestListTimeLogsNewestFirst(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	worker := seedUser(t, db, "worker", model.RoleEmployee)
	project := seedProject(t, db, "depot", worker.ID, manager.ID)
	task := seedTask(t, db, project.ID, worker.ID, "dig", model.TaskStatusInProgress)

	older := model.TimeLog{TaskID: task.ID, UserID: worker.ID, StartTime: time.Now().Add(-3 * time.Hour), IsActive: false}
	newer := model.TimeLog{TaskID: task.ID, UserID: worker.ID, StartTime: time.Now().Add(-1 * time.Hour), IsActive: false}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)

	logs, err := engine.ListTimeLogs(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, newer.ID, logs[0].ID)
	assert.Equal(t, older.ID, logs[1].ID)
}
