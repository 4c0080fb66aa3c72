package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/internal/resputil"
	"github.com/build-lab/girder/internal/util"
	"github.com/build-lab/girder/pkg/workflow"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewProjectMgr)
}

type ProjectMgr struct {
	name   string
	db     *gorm.DB
	engine *workflow.Engine
}

func NewProjectMgr(conf *RegisterConfig) Manager {
	return &ProjectMgr{
		name:   "projects",
		db:     conf.DB,
		engine: conf.ApprovalEngine,
	}
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListProjects)
	g.GET("/:id", mgr.GetProject)
	g.POST("", mgr.CreateProject)
	g.PUT("/:id/status", mgr.UpdateStatus)
	g.PUT("/:id/cost", mgr.UpdateActualCost)
	g.POST("/:id/approvals", mgr.RequestApproval)
	g.POST("/:id/approve", mgr.ApproveProject)
	g.DELETE("/:id", mgr.DeleteProject)
}

func (mgr *ProjectMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	ProjectIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	CreateProjectReq struct {
		Name             string    `json:"name" binding:"required"`
		Description      *string   `json:"description"`
		Budget           float64   `json:"budget" binding:"required"`
		ClientID         uint      `json:"clientID" binding:"required"`
		ProjectManagerID uint      `json:"projectManagerID" binding:"required"`
		StartDate        time.Time `json:"startDate" binding:"required"`
		EndDate          time.Time `json:"endDate" binding:"required"`
	}

	UpdateStatusReq struct {
		Status model.ProjectStatus `json:"status" binding:"required"`
	}

	UpdateCostReq struct {
		ActualCost *float64 `json:"actualCost" binding:"required"`
	}

	ProjectResp struct {
		ID               uint                `json:"id"`
		Name             string              `json:"name"`
		Description      *string             `json:"description"`
		Budget           float64             `json:"budget"`
		ActualCost       float64             `json:"actualCost"`
		Status           model.ProjectStatus `json:"status"`
		ClientID         uint                `json:"clientID"`
		ProjectManagerID uint                `json:"projectManagerID"`
		StartDate        time.Time           `json:"startDate"`
		EndDate          time.Time           `json:"endDate"`
		CreatedAt        time.Time           `json:"createdAt"`
	}
)

func toProjectResp(p *model.Project) ProjectResp {
	return ProjectResp{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Budget:           p.Budget,
		ActualCost:       p.ActualCost,
		Status:           p.Status,
		ClientID:         p.ClientID,
		ProjectManagerID: p.ProjectManagerID,
		StartDate:        p.StartDate,
		EndDate:          p.EndDate,
		CreatedAt:        p.CreatedAt,
	}
}

func actorFrom(c *gin.Context) workflow.Actor {
	token := util.GetToken(c)
	return workflow.Actor{ID: token.UserID, Role: token.Role}
}

// ListProjects godoc
// @Summary List projects
// @Description List all projects
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]ProjectResp] "projects"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /v1/projects [get]
func (mgr *ProjectMgr) ListProjects(c *gin.Context) {
	var projects []model.Project
	if err := mgr.db.WithContext(c).Order("id").Find(&projects).Error; err != nil {
		resputil.Error(c, "failed to list projects", resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(projects, func(p model.Project, _ int) ProjectResp {
		return toProjectResp(&p)
	}))
}

// GetProject godoc
// @Summary Get one project
// @Description Get a project by ID
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "project ID"
// @Success 200 {object} resputil.Response[ProjectResp] "project detail"
// @Failure 404 {object} resputil.Response[any] "project not found"
// @Router /v1/projects/{id} [get]
func (mgr *ProjectMgr) GetProject(c *gin.Context) {
	var req ProjectIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, req.ID).Error; err != nil {
		resputil.HTTPError(c, 404, "project not found", resputil.ResourceNotFound)
		return
	}
	resputil.Success(c, toProjectResp(&project))
}

// CreateProject godoc
// @Summary Create a project
// @Description Create a project in Planning status
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body CreateProjectReq true "project"
// @Success 200 {object} resputil.Response[ProjectResp] "created project"
// @Failure 400 {object} resputil.Response[any] "request parameter error"
// @Router /v1/projects [post]
func (mgr *ProjectMgr) CreateProject(c *gin.Context) {
	var req CreateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	project, err := mgr.engine.CreateProject(c, workflow.CreateProjectInput{
		Name:             req.Name,
		Description:      req.Description,
		Budget:           req.Budget,
		ClientID:         req.ClientID,
		ProjectManagerID: req.ProjectManagerID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	}, actorFrom(c))
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toProjectResp(project))
}

// UpdateStatus godoc
// @Summary Update project status
// @Description Apply a status change through the transition table
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "project ID"
// @Param data body UpdateStatusReq true "target status"
// @Success 200 {object} resputil.Response[ProjectResp] "updated project"
// @Failure 400 {object} resputil.Response[any] "invalid transition"
// @Failure 403 {object} resputil.Response[any] "role not allowed"
// @Router /v1/projects/{id}/status [put]
func (mgr *ProjectMgr) UpdateStatus(c *gin.Context) {
	var idReq ProjectIDReq
	var req UpdateStatusReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	project, err := mgr.engine.UpdateStatus(c, idReq.ID, req.Status, actorFrom(c))
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toProjectResp(project))
}

// UpdateActualCost godoc
// @Summary Update actual cost
// @Description Record actual spend; over-budget triggers a director alert
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "project ID"
// @Param data body UpdateCostReq true "actual cost"
// @Success 200 {object} resputil.Response[ProjectResp] "updated project"
// @Failure 403 {object} resputil.Response[any] "role not allowed"
// @Router /v1/projects/{id}/cost [put]
func (mgr *ProjectMgr) UpdateActualCost(c *gin.Context) {
	var idReq ProjectIDReq
	var req UpdateCostReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	project, err := mgr.engine.UpdateActualCost(c, idReq.ID, *req.ActualCost, actorFrom(c))
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toProjectResp(project))
}

// RequestApproval godoc
// @Summary Open an approval round
// @Description Create one Pending approval per level required by the budget
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "project ID"
// @Success 200 {object} resputil.Response[[]ApprovalResp] "created approvals"
// @Failure 409 {object} resputil.Response[any] "a round is already pending"
// @Router /v1/projects/{id}/approvals [post]
func (mgr *ProjectMgr) RequestApproval(c *gin.Context) {
	var req ProjectIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	token := util.GetToken(c)
	approvals, err := mgr.engine.RequestApproval(c, req.ID, token.UserID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, lo.Map(approvals, func(a model.ProjectApproval, _ int) ApprovalResp {
		return toApprovalResp(&a)
	}))
}

// ApproveProject godoc
// @Summary Approve a project directly
// @Description Director-only expedited path from Planning to In Progress
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "project ID"
// @Success 200 {object} resputil.Response[ProjectResp] "approved project"
// @Failure 403 {object} resputil.Response[any] "role not allowed"
// @Router /v1/projects/{id}/approve [post]
func (mgr *ProjectMgr) ApproveProject(c *gin.Context) {
	var req ProjectIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	project, err := mgr.engine.ApproveProject(c, req.ID, actorFrom(c))
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toProjectResp(project))
}

// DeleteProject godoc
// @Summary Delete a project
// @Description Director-only; the project must own zero tasks
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "project ID"
// @Success 200 {object} resputil.Response[string] "deleted"
// @Failure 409 {object} resputil.Response[any] "project still owns tasks"
// @Router /v1/projects/{id} [delete]
func (mgr *ProjectMgr) DeleteProject(c *gin.Context) {
	var req ProjectIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if err := mgr.engine.DeleteProject(c, req.ID, actorFrom(c)); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, "")
}
