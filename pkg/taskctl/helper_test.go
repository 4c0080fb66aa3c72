package taskctl

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/pkg/event"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB, *event.Recorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "girder.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.ProjectApproval{},
		&model.Task{},
		&model.TaskDependency{},
		&model.TaskApproval{},
		&model.TimeLog{},
	))

	rec := &event.Recorder{}
	return NewEngine(db, rec), db, rec
}

func seedUser(t *testing.T, db *gorm.DB, name string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		Name:   name,
		Email:  name + "@example.com",
		Role:   role,
		Status: model.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProject(t *testing.T, db *gorm.DB, name string, clientID, managerID uint) *model.Project {
	t.Helper()
	project := &model.Project{
		Name:             name,
		Budget:           100_000,
		Status:           model.ProjectStatusInProgress,
		ClientID:         clientID,
		ProjectManagerID: managerID,
		StartDate:        time.Now(),
		EndDate:          time.Now().AddDate(0, 6, 0),
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func seedTask(t *testing.T, db *gorm.DB, projectID, creatorID uint, name string, status model.TaskStatus) *model.Task {
	t.Helper()
	task := &model.Task{
		ProjectID:    projectID,
		Name:         name,
		Status:       status,
		Priority:     model.TaskPriorityMedium,
		AssignedToID: creatorID,
		CreatedByID:  creatorID,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func edgeCount(t *testing.T, db *gorm.DB, taskID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.TaskDependency{}).Where("task_id = ?", taskID).Count(&count).Error)
	return count
}
