package taskctl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
	"github.com/build-lab/girder/pkg/event"
)

func TestCreateTaskWithDependencies(t *testing.T) {
	engine, db, rec := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	worker := seedUser(t, db, "worker", model.RoleEmployee)
	project := seedProject(t, db, "depot", worker.ID, manager.ID)
	foundation := seedTask(t, db, project.ID, manager.ID, "foundation", model.TaskStatusNotStarted)

	actor := Actor{ID: manager.ID, Role: model.RoleProjectManager}
	walls, err := engine.CreateTask(ctx, CreateTaskInput{
		ProjectID:    project.ID,
		Name:         "walls",
		AssignedToID: worker.ID,
		DependsOn:    []uint{foundation.ID},
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusNotStarted, walls.Status)
	assert.Equal(t, model.TaskPriorityMedium, walls.Priority)
	assert.EqualValues(t, 1, edgeCount(t, db, walls.ID))

	assigned := rec.ByKind(event.TaskAssigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, worker.Email, assigned[0].Recipients[0].Email)
	assert.Equal(t, "depot", assigned[0].Payload["projectName"])
}

func TestCreateTaskRejectsCrossProjectDependency(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	projectA := seedProject(t, db, "alpha", manager.ID, manager.ID)
	projectB := seedProject(t, db, "beta", manager.ID, manager.ID)
	other := seedTask(t, db, projectB.ID, manager.ID, "other", model.TaskStatusNotStarted)

	_, err := engine.CreateTask(ctx, CreateTaskInput{
		ProjectID: projectA.ID,
		Name:      "orphan",
		DependsOn: []uint{other.ID},
	}, Actor{ID: manager.ID, Role: model.RoleProjectManager})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateTaskRejectsDependencyCycle(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	project := seedProject(t, db, "depot", manager.ID, manager.ID)
	actor := Actor{ID: manager.ID, Role: model.RoleProjectManager}

	a := seedTask(t, db, project.ID, manager.ID, "a", model.TaskStatusNotStarted)
	b := seedTask(t, db, project.ID, manager.ID, "b", model.TaskStatusNotStarted)
	c := seedTask(t, db, project.ID, manager.ID, "c", model.TaskStatusNotStarted)

	// a -> b -> c
	_, err := engine.UpdateTask(ctx, a.ID, UpdateTaskInput{DependsOn: &[]uint{b.ID}}, actor)
	require.NoError(t, err)
	_, err = engine.UpdateTask(ctx, b.ID, UpdateTaskInput{DependsOn: &[]uint{c.ID}}, actor)
	require.NoError(t, err)

	// Closing the loop c -> a must fail and leave c without edges.
	_, err = engine.UpdateTask(ctx, c.ID, UpdateTaskInput{DependsOn: &[]uint{a.ID}}, actor)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Zero(t, edgeCount(t, db, c.ID))

	// The earlier edges survived the rollback.
	assert.EqualValues(t, 1, edgeCount(t, db, a.ID))
	assert.EqualValues(t, 1, edgeCount(t, db, b.ID))

	// Self dependency is caught before any graph walk.
	_, err = engine.UpdateTask(ctx, a.ID, UpdateTaskInput{DependsOn: &[]uint{a.ID}}, actor)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestStatusGateRequiresCompletedDependencies(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	project := seedProject(t, db, "depot", manager.ID, manager.ID)
	actor := Actor{ID: manager.ID, Role: model.RoleProjectManager}

	foundation := seedTask(t, db, project.ID, manager.ID, "foundation", model.TaskStatusInProgress)
	walls := seedTask(t, db, project.ID, manager.ID, "walls", model.TaskStatusNotStarted)
	_, err := engine.UpdateTask(ctx, walls.ID, UpdateTaskInput{DependsOn: &[]uint{foundation.ID}}, actor)
	require.NoError(t, err)

	inProgress := model.TaskStatusInProgress
	_, err = engine.UpdateTask(ctx, walls.ID, UpdateTaskInput{Status: &inProgress}, actor)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// On Hold is not gated.
	onHold := model.TaskStatusOnHold
	_, err = engine.UpdateTask(ctx, walls.ID, UpdateTaskInput{Status: &onHold}, actor)
	require.NoError(t, err)

	// Completing the prerequisite unblocks the dependent.
	completed := model.TaskStatusCompleted
	_, err = engine.UpdateTask(ctx, foundation.ID, UpdateTaskInput{Status: &completed}, actor)
	require.NoError(t, err)

	updated, err := engine.UpdateTask(ctx, walls.ID, UpdateTaskInput{Status: &inProgress}, actor)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInProgress, updated.Status)
}

func TestUpdateTaskCompletionDefaults(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	project := seedProject(t, db, "depot", manager.ID, manager.ID)
	actor := Actor{ID: manager.ID, Role: model.RoleProjectManager}
	task := seedTask(t, db, project.ID, manager.ID, "dig", model.TaskStatusInProgress)

	completed := model.TaskStatusCompleted
	updated, err := engine.UpdateTask(ctx, task.ID, UpdateTaskInput{Status: &completed}, actor)
	require.NoError(t, err)
	assert.EqualValues(t, 100, updated.CompletionPercentage)

	notStarted := model.TaskStatusNotStarted
	updated, err = engine.UpdateTask(ctx, task.ID, UpdateTaskInput{Status: &notStarted}, actor)
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated.CompletionPercentage)

	// An explicit value wins over the default.
	inProgress := model.TaskStatusInProgress
	sixty := uint8(60)
	updated, err = engine.UpdateTask(ctx, task.ID, UpdateTaskInput{Status: &inProgress, CompletionPercentage: &sixty}, actor)
	require.NoError(t, err)
	assert.EqualValues(t, 60, updated.CompletionPercentage)

	over := uint8(101)
	_, err = engine.UpdateTask(ctx, task.ID, UpdateTaskInput{CompletionPercentage: &over}, actor)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateTaskAuthorization(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	worker := seedUser(t, db, "worker", model.RoleEmployee)
	outsider := seedUser(t, db, "outsider", model.RoleEmployee)
	project := seedProject(t, db, "depot", worker.ID, manager.ID)
	task := seedTask(t, db, project.ID, worker.ID, "dig", model.TaskStatusNotStarted)

	name := "dig deeper"
	_, err := engine.UpdateTask(ctx, task.ID, UpdateTaskInput{Name: &name},
		Actor{ID: outsider.ID, Role: model.RoleEmployee})
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	// The project manager is neither assignee nor creator but may update.
	_, err = engine.UpdateTask(ctx, task.ID, UpdateTaskInput{Name: &name},
		Actor{ID: manager.ID, Role: model.RoleProjectManager})
	require.NoError(t, err)
}

func TestDeleteTaskBlockedByDependents(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	project := seedProject(t, db, "depot", manager.ID, manager.ID)
	actor := Actor{ID: manager.ID, Role: model.RoleProjectManager}

	foundation := seedTask(t, db, project.ID, manager.ID, "foundation", model.TaskStatusNotStarted)
	walls := seedTask(t, db, project.ID, manager.ID, "walls", model.TaskStatusNotStarted)
	_, err := engine.UpdateTask(ctx, walls.ID, UpdateTaskInput{DependsOn: &[]uint{foundation.ID}}, actor)
	require.NoError(t, err)

	err = engine.DeleteTask(ctx, foundation.ID, actor)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// The dependent deletes fine, dropping its own edge with it.
	require.NoError(t, engine.DeleteTask(ctx, walls.ID, actor))
	require.NoError(t, engine.DeleteTask(ctx, foundation.ID, actor))

	_, err = engine.GetTask(ctx, walls.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
