package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/apperr"
	"github.com/build-lab/girder/pkg/event"
)

func TestCreateProjectValidation(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	client := seedUser(t, db, "client", model.RoleEmployee)
	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	actor := Actor{ID: manager.ID, Role: model.RoleProjectManager}
	start := time.Now()
	end := start.AddDate(0, 3, 0)

	_, err := engine.CreateProject(ctx, CreateProjectInput{
		Name: "negative", Budget: -1, ClientID: client.ID, ProjectManagerID: manager.ID,
		StartDate: start, EndDate: end,
	}, actor)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = engine.CreateProject(ctx, CreateProjectInput{
		Name: "backwards", Budget: 1000, ClientID: client.ID, ProjectManagerID: manager.ID,
		StartDate: end, EndDate: start,
	}, actor)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = engine.CreateProject(ctx, CreateProjectInput{
		Name: "ghost-client", Budget: 1000, ClientID: 9999, ProjectManagerID: manager.ID,
		StartDate: start, EndDate: end,
	}, actor)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateProjectStartsInPlanning(t *testing.T) {
	engine, db, rec := newTestEngine(t)
	ctx := context.Background()

	client := seedUser(t, db, "client", model.RoleEmployee)
	manager := seedUser(t, db, "manager", model.RoleProjectManager)

	project, err := engine.CreateProject(ctx, CreateProjectInput{
		Name: "warehouse", Budget: 250_000, ClientID: client.ID, ProjectManagerID: manager.ID,
		StartDate: time.Now(), EndDate: time.Now().AddDate(1, 0, 0),
	}, Actor{ID: manager.ID, Role: model.RoleProjectManager})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusPlanning, project.Status)
	assert.Equal(t, manager.ID, project.CreatedByID)

	created := rec.ByKind(event.ProjectCreated)
	require.Len(t, created, 1)
	require.Len(t, created[0].Recipients, 2)
	assert.Equal(t, manager.Email, created[0].Recipients[0].Email)
	assert.Equal(t, client.Email, created[0].Recipients[1].Email)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	client := seedUser(t, db, "client", model.RoleEmployee)
	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	project := seedProject(t, db, "depot", 100_000, client.ID, manager.ID)

	_, err := engine.UpdateStatus(ctx, project.ID, model.ProjectStatusCompleted,
		Actor{ID: manager.ID, Role: model.RoleProjectManager})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	updated, err := engine.UpdateStatus(ctx, project.ID, model.ProjectStatusInProgress,
		Actor{ID: manager.ID, Role: model.RoleProjectManager})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusInProgress, updated.Status)
}

func TestDeleteProjectGuards(t *testing.T) {
	engine, db, rec := newTestEngine(t)
	ctx := context.Background()

	client := seedUser(t, db, "client", model.RoleEmployee)
	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	director := seedUser(t, db, "director", model.RoleDirector)
	project := seedProject(t, db, "depot", 100_000, client.ID, manager.ID)

	err := engine.DeleteProject(ctx, project.ID, Actor{ID: manager.ID, Role: model.RoleProjectManager})
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	task := model.Task{ProjectID: project.ID, Name: "dig", Status: model.TaskStatusNotStarted, Priority: model.TaskPriorityMedium}
	require.NoError(t, db.Create(&task).Error)

	err = engine.DeleteProject(ctx, project.ID, Actor{ID: director.ID, Role: model.RoleDirector})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	require.NoError(t, db.Delete(&task).Error)
	require.NoError(t, engine.DeleteProject(ctx, project.ID, Actor{ID: director.ID, Role: model.RoleDirector}))
	assert.Len(t, rec.ByKind(event.ProjectDeleted), 1)

	var count int64
	require.NoError(t, db.Model(&model.Project{}).Where("id = ?", project.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateActualCostAuthorization(t *testing.T) {
	engine, db, _ := newTestEngine(t)
	ctx := context.Background()

	client := seedUser(t, db, "client", model.RoleEmployee)
	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	outsider := seedUser(t, db, "outsider", model.RoleProjectManager)
	project := seedProject(t, db, "depot", 100_000, client.ID, manager.ID)

	_, err := engine.UpdateActualCost(ctx, project.ID, 10_000,
		Actor{ID: outsider.ID, Role: model.RoleProjectManager})
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	updated, err := engine.UpdateActualCost(ctx, project.ID, 10_000,
		Actor{ID: manager.ID, Role: model.RoleProjectManager})
	require.NoError(t, err)
	assert.InDelta(t, 10_000, updated.ActualCost, 0.001)

	_, err = engine.UpdateActualCost(ctx, project.ID, -5, Actor{ID: manager.ID, Role: model.RoleProjectManager})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateActualCostOverBudgetAlert(t *testing.T) {
	engine, db, rec := newTestEngine(t)
	ctx := context.Background()

	client := seedUser(t, db, "client", model.RoleEmployee)
	manager := seedUser(t, db, "manager", model.RoleProjectManager)
	director := seedUser(t, db, "director", model.RoleDirector)
	project := seedProject(t, db, "depot", 100_000, client.ID, manager.ID)

	// Under budget: no alert.
	_, err := engine.UpdateActualCost(ctx, project.ID, 90_000,
		Actor{ID: director.ID, Role: model.RoleDirector})
	require.NoError(t, err)
	assert.Empty(t, rec.ByKind(event.BudgetExceeded))

	_, err = engine.UpdateActualCost(ctx, project.ID, 125_000,
		Actor{ID: director.ID, Role: model.RoleDirector})
	require.NoError(t, err)

	alerts := rec.ByKind(event.BudgetExceeded)
	require.Len(t, alerts, 1)
	assert.InDelta(t, 25_000, alerts[0].Payload["overBudgetAmount"], 0.001)
	assert.InDelta(t, 25.0, alerts[0].Payload["overBudgetPercentage"], 0.001)

	emails := make([]string, 0, len(alerts[0].Recipients))
	for _, r := range alerts[0].Recipients {
		emails = append(emails, r.Email)
	}
	assert.Contains(t, emails, manager.Email)
	assert.Contains(t, emails, client.Email)
	assert.Contains(t, emails, director.Email)
}
