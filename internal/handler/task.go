package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/internal/resputil"
	"github.com/build-lab/girder/internal/util"
	"github.com/build-lab/girder/pkg/taskctl"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewTaskMgr)
}

type TaskMgr struct {
	name   string
	engine *taskctl.Engine
}

func NewTaskMgr(conf *RegisterConfig) Manager {
	return &TaskMgr{
		name:   "tasks",
		engine: conf.TaskEngine,
	}
}

func (mgr *TaskMgr) GetName() string { return mgr.name }

func (mgr *TaskMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *TaskMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListTasks)
	g.GET("/:id", mgr.GetTask)
	g.POST("", mgr.CreateTask)
	g.PUT("/:id", mgr.UpdateTask)
	g.DELETE("/:id", mgr.DeleteTask)
	g.POST("/:id/approvals", mgr.RequestApproval)
	g.PUT("/approvals/:id", mgr.RespondToApproval)
}

func (mgr *TaskMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	TaskIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	ListTasksReq struct {
		ProjectID uint `form:"projectID" binding:"required"`
	}

	CreateTaskReq struct {
		ProjectID      uint               `json:"projectID" binding:"required"`
		Name           string             `json:"name" binding:"required"`
		Description    *string            `json:"description"`
		AssignedToID   uint               `json:"assignedToID"`
		Priority       model.TaskPriority `json:"priority"`
		EstimatedHours float64            `json:"estimatedHours"`
		DueDate        *time.Time         `json:"dueDate"`
		DependsOn      []uint             `json:"dependsOn"`
	}

	UpdateTaskReq struct {
		Name                 *string             `json:"name"`
		Description          *string             `json:"description"`
		Status               *model.TaskStatus   `json:"status"`
		Priority             *model.TaskPriority `json:"priority"`
		CompletionPercentage *uint8              `json:"completionPercentage"`
		EstimatedHours       *float64            `json:"estimatedHours"`
		DueDate              *time.Time          `json:"dueDate"`
		AssignedToID         *uint               `json:"assignedToID"`
		DependsOn            *[]uint             `json:"dependsOn"`
	}

	RespondTaskApprovalReq struct {
		Status   model.ApprovalStatus `json:"status" binding:"required"`
		Comments string               `json:"comments"`
	}

	TaskResp struct {
		ID                   uint               `json:"id"`
		ProjectID            uint               `json:"projectID"`
		Name                 string             `json:"name"`
		Description          *string            `json:"description"`
		Status               model.TaskStatus   `json:"status"`
		Priority             model.TaskPriority `json:"priority"`
		CompletionPercentage uint8              `json:"completionPercentage"`
		EstimatedHours       float64            `json:"estimatedHours"`
		ActualHours          float64            `json:"actualHours"`
		DueDate              *time.Time         `json:"dueDate"`
		AssignedToID         uint               `json:"assignedToID"`
		CreatedByID          uint               `json:"createdByID"`
		CreatedAt            time.Time          `json:"createdAt"`
	}

	TaskApprovalResp struct {
		ID            uint                 `json:"id"`
		TaskID        uint                 `json:"taskID"`
		RequestedByID uint                 `json:"requestedByID"`
		ApprovedByID  uint                 `json:"approvedByID"`
		Status        model.ApprovalStatus `json:"status"`
		Comments      string               `json:"comments"`
		RequestedAt   time.Time            `json:"requestedAt"`
		RespondedAt   *time.Time           `json:"respondedAt"`
	}
)

func toTaskResp(t *model.Task) TaskResp {
	return TaskResp{
		ID:                   t.ID,
		ProjectID:            t.ProjectID,
		Name:                 t.Name,
		Description:          t.Description,
		Status:               t.Status,
		Priority:             t.Priority,
		CompletionPercentage: t.CompletionPercentage,
		EstimatedHours:       t.EstimatedHours,
		ActualHours:          t.ActualHours,
		DueDate:              t.DueDate,
		AssignedToID:         t.AssignedToID,
		CreatedByID:          t.CreatedByID,
		CreatedAt:            t.CreatedAt,
	}
}

func toTaskApprovalResp(a *model.TaskApproval) TaskApprovalResp {
	return TaskApprovalResp{
		ID:            a.ID,
		TaskID:        a.TaskID,
		RequestedByID: a.RequestedByID,
		ApprovedByID:  a.ApprovedByID,
		Status:        a.Status,
		Comments:      a.Comments,
		RequestedAt:   a.RequestedAt,
		RespondedAt:   a.RespondedAt,
	}
}

func taskActorFrom(c *gin.Context) taskctl.Actor {
	token := util.GetToken(c)
	return taskctl.Actor{ID: token.UserID, Role: token.Role}
}

// ListTasks godoc
// @Summary List tasks of a project
// @Description Tasks ordered by ID for one project
// @Tags Task
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectID query int true "project ID"
// @Success 200 {object} resputil.Response[[]TaskResp] "tasks"
// @Failure 400 {object} resputil.Response[any] "request parameter error"
// @Router /v1/tasks [get]
func (mgr *TaskMgr) ListTasks(c *gin.Context) {
	var req ListTasksReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	tasks, err := mgr.engine.ListTasks(c, req.ProjectID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, lo.Map(tasks, func(t model.Task, _ int) TaskResp {
		return toTaskResp(&t)
	}))
}

// GetTask godoc
// @Summary Get one task
// @Description Get a task by ID
// @Tags Task
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "task ID"
// @Success 200 {object} resputil.Response[TaskResp] "task detail"
// @Failure 404 {object} resputil.Response[any] "task not found"
// @Router /v1/tasks/{id} [get]
func (mgr *TaskMgr) GetTask(c *gin.Context) {
	var req TaskIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	task, err := mgr.engine.GetTask(c, req.ID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toTaskResp(task))
}

// CreateTask godoc
// @Summary Create a task
// @Description Create a task with optional dependency edges
// @Tags Task
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body CreateTaskReq true "task"
// @Success 200 {object} resputil.Response[TaskResp] "created task"
// @Failure 400 {object} resputil.Response[any] "invalid dependencies"
// @Router /v1/tasks [post]
func (mgr *TaskMgr) CreateTask(c *gin.Context) {
	var req CreateTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	task, err := mgr.engine.CreateTask(c, taskctl.CreateTaskInput{
		ProjectID:      req.ProjectID,
		Name:           req.Name,
		Description:    req.Description,
		AssignedToID:   req.AssignedToID,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
		DependsOn:      req.DependsOn,
	}, taskActorFrom(c))
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toTaskResp(task))
}

// UpdateTask godoc
// @Summary Update a task
// @Description Patch task fields; dependsOn, when present, replaces the edge set
// @Tags Task
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "task ID"
// @Param data body UpdateTaskReq true "fields to change"
// @Success 200 {object} resputil.Response[TaskResp] "updated task"
// @Failure 400 {object} resputil.Response[any] "invalid update"
// @Failure 403 {object} resputil.Response[any] "not allowed to modify this task"
// @Router /v1/tasks/{id} [put]
func (mgr *TaskMgr) UpdateTask(c *gin.Context) {
	var idReq TaskIDReq
	var req UpdateTaskReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	task, err := mgr.engine.UpdateTask(c, idReq.ID, taskctl.UpdateTaskInput{
		Name:                 req.Name,
		Description:          req.Description,
		Status:               req.Status,
		Priority:             req.Priority,
		CompletionPercentage: req.CompletionPercentage,
		EstimatedHours:       req.EstimatedHours,
		DueDate:              req.DueDate,
		AssignedToID:         req.AssignedToID,
		DependsOn:            req.DependsOn,
	}, taskActorFrom(c))
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toTaskResp(task))
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Refused while other tasks still depend on it
// @Tags Task
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "task ID"
// @Success 200 {object} resputil.Response[string] "deleted"
// @Failure 409 {object} resputil.Response[any] "task has dependents"
// @Router /v1/tasks/{id} [delete]
func (mgr *TaskMgr) DeleteTask(c *gin.Context) {
	var req TaskIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := mgr.engine.DeleteTask(c, req.ID, taskActorFrom(c)); err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, "")
}

// RequestApproval godoc
// @Summary Request task approval
// @Description Open a pending approval and notify the project manager
// @Tags Task
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "task ID"
// @Success 200 {object} resputil.Response[TaskApprovalResp] "created approval"
// @Failure 409 {object} resputil.Response[any] "a request is already pending"
// @Router /v1/tasks/{id}/approvals [post]
func (mgr *TaskMgr) RequestApproval(c *gin.Context) {
	var req TaskIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	token := util.GetToken(c)
	approval, err := mgr.engine.RequestTaskApproval(c, req.ID, token.UserID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toTaskApprovalResp(approval))
}

// RespondToApproval godoc
// @Summary Respond to a task approval
// @Description Project manager approves or declines a pending request
// @Tags Task
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "task approval ID"
// @Param data body RespondTaskApprovalReq true "decision"
// @Success 200 {object} resputil.Response[TaskApprovalResp] "decided approval"
// @Failure 403 {object} resputil.Response[any] "not the project manager"
// @Failure 409 {object} resputil.Response[any] "approval already decided"
// @Router /v1/tasks/approvals/{id} [put]
func (mgr *TaskMgr) RespondToApproval(c *gin.Context) {
	var idReq TaskIDReq
	var req RespondTaskApprovalReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if req.Status != model.ApprovalStatusApproved && req.Status != model.ApprovalStatusDeclined {
		resputil.BadRequestError(c, "status must be Approved or Declined")
		return
	}

	approval, err := mgr.engine.RespondToTaskApproval(c, idReq.ID, req.Status, req.Comments, taskActorFrom(c))
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toTaskApprovalResp(approval))
}
