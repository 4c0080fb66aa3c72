package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/internal/resputil"
	"github.com/build-lab/girder/internal/util"
	"github.com/build-lab/girder/pkg/event"
	"github.com/build-lab/girder/pkg/workflow"
)

func newApprovalTestMgr(t *testing.T) (*ApprovalMgr, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "girder.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.ProjectApproval{},
		&model.Task{},
	))
	engine := workflow.NewEngine(db, &event.Recorder{})
	mgr, ok := NewApprovalMgr(&RegisterConfig{DB: db, ApprovalEngine: engine}).(*ApprovalMgr)
	require.True(t, ok)
	return mgr, db
}

func decideApproval(t *testing.T, mgr *ApprovalMgr, approvalID uint, actor *model.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut,
		fmt.Sprintf("/v1/approvals/%d", approvalID), strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(approvalID)}}
	util.SetJWTContext(c, util.JWTMessage{UserID: actor.ID, Username: actor.Name, Role: actor.Role})
	mgr.ProcessApproval(c)
	return w
}

// An interim decision of a multi-level round must come back 200 with the
// project still in Planning, not finalized.
func TestProcessApprovalInterimDecisionResponds(t *testing.T) {
	mgr, db := newApprovalTestMgr(t)

	client := &model.User{Name: "client", Email: "client@example.com", Role: model.RoleEmployee, Status: model.UserStatusActive}
	manager := &model.User{Name: "manager", Email: "manager@example.com", Role: model.RoleProjectManager, Status: model.UserStatusActive}
	director := &model.User{Name: "director", Email: "director@example.com", Role: model.RoleDirector, Status: model.UserStatusActive}
	require.NoError(t, db.Create(client).Error)
	require.NoError(t, db.Create(manager).Error)
	require.NoError(t, db.Create(director).Error)
	project := &model.Project{
		Name:             "viaduct",
		Budget:           750_000,
		Status:           model.ProjectStatusPlanning,
		ClientID:         client.ID,
		ProjectManagerID: manager.ID,
		StartDate:        time.Now(),
		EndDate:          time.Now().AddDate(0, 6, 0),
	}
	require.NoError(t, db.Create(project).Error)

	approvals, err := mgr.engine.RequestApproval(context.Background(), project.ID, manager.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 2)

	w := decideApproval(t, mgr, approvals[0].ID, manager, `{"status":"Approved"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp resputil.Response[ProcessApprovalResp]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Finalized)
	assert.Equal(t, project.ID, resp.Data.ProjectID)
	assert.Equal(t, model.ProjectStatusPlanning, resp.Data.Status)
	assert.Equal(t, model.ApprovalStatusApproved, resp.Data.Approval.Status)

	// The final sign-off flips the project to In Progress.
	w = decideApproval(t, mgr, approvals[1].ID, director, `{"status":"Approved"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Finalized)
	assert.Equal(t, model.ProjectStatusInProgress, resp.Data.Status)
}
