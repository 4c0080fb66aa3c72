package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/internal/resputil"
	"github.com/build-lab/girder/internal/util"
	"github.com/build-lab/girder/pkg/workflow"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewApprovalMgr)
}

type ApprovalMgr struct {
	name   string
	engine *workflow.Engine
}

func NewApprovalMgr(conf *RegisterConfig) Manager {
	return &ApprovalMgr{
		name:   "approvals",
		engine: conf.ApprovalEngine,
	}
}

func (mgr *ApprovalMgr) GetName() string { return mgr.name }

func (mgr *ApprovalMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ApprovalMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/pending", mgr.ListPending)
	g.PUT("/:id", mgr.ProcessApproval)
}

func (mgr *ApprovalMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	ApprovalIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	ProcessApprovalReq struct {
		Status   model.ApprovalStatus `json:"status" binding:"required"`
		Comments string               `json:"comments"`
	}

	ApprovalResp struct {
		ID            uint                 `json:"id"`
		ProjectID     uint                 `json:"projectID"`
		ApproverID    uint                 `json:"approverID"`
		ApprovalLevel string               `json:"approvalLevel"`
		Status        model.ApprovalStatus `json:"status"`
		Comments      string               `json:"comments"`
		ApprovedAt    *time.Time           `json:"approvedAt"`
		CreatedAt     time.Time            `json:"createdAt"`
	}

	ProcessApprovalResp struct {
		Approval  ApprovalResp        `json:"approval"`
		ProjectID uint                `json:"projectID"`
		Status    model.ProjectStatus `json:"projectStatus"`
		Finalized bool                `json:"finalized"`
	}
)

func toApprovalResp(a *model.ProjectApproval) ApprovalResp {
	return ApprovalResp{
		ID:            a.ID,
		ProjectID:     a.ProjectID,
		ApproverID:    a.ApproverID,
		ApprovalLevel: a.ApprovalLevel.String(),
		Status:        a.Status,
		Comments:      a.Comments,
		ApprovedAt:    a.ApprovedAt,
		CreatedAt:     a.CreatedAt,
	}
}

// ListPending godoc
// @Summary List pending approvals
// @Description Approvals waiting on the current user, oldest first
// @Tags Approval
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]ApprovalResp] "pending approvals"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /v1/approvals/pending [get]
func (mgr *ApprovalMgr) ListPending(c *gin.Context) {
	token := util.GetToken(c)
	approvals, err := mgr.engine.PendingApprovals(c, token.UserID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, lo.Map(approvals, func(a model.ProjectApproval, _ int) ApprovalResp {
		return toApprovalResp(&a)
	}))
}

// ProcessApproval godoc
// @Summary Decide an approval
// @Description Approve or reject; a rejection collapses the whole round
// @Tags Approval
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "approval ID"
// @Param data body ProcessApprovalReq true "decision"
// @Success 200 {object} resputil.Response[ProcessApprovalResp] "outcome"
// @Failure 403 {object} resputil.Response[any] "not the assigned approver"
// @Failure 409 {object} resputil.Response[any] "approval already decided"
// @Router /v1/approvals/{id} [put]
func (mgr *ApprovalMgr) ProcessApproval(c *gin.Context) {
	var idReq ApprovalIDReq
	var req ProcessApprovalReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if req.Status != model.ApprovalStatusApproved && req.Status != model.ApprovalStatusRejected {
		resputil.BadRequestError(c, "status must be Approved or Rejected")
		return
	}

	token := util.GetToken(c)
	outcome, err := mgr.engine.ProcessApproval(c, idReq.ID, token.UserID, req.Status, req.Comments)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, ProcessApprovalResp{
		Approval:  toApprovalResp(outcome.Approval),
		ProjectID: outcome.Project.ID,
		Status:    outcome.Project.Status,
		Finalized: outcome.Finalized,
	})
}
