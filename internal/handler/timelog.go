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
	Registers = append(Registers, NewTimeLogMgr)
}

type TimeLogMgr struct {
	name   string
	engine *taskctl.Engine
}

func NewTimeLogMgr(conf *RegisterConfig) Manager {
	return &TimeLogMgr{
		name:   "timelogs",
		engine: conf.TaskEngine,
	}
}

func (mgr *TimeLogMgr) GetName() string { return mgr.name }

func (mgr *TimeLogMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *TimeLogMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListTimeLogs)
	g.POST("/start", mgr.StartTimeLog)
	g.PUT("/:id/stop", mgr.StopTimeLog)
}

func (mgr *TimeLogMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	TimeLogIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	ListTimeLogsReq struct {
		TaskID uint `form:"taskID" binding:"required"`
	}

	StartTimeLogReq struct {
		TaskID uint `json:"taskID" binding:"required"`
	}

	TimeLogResp struct {
		ID              uint       `json:"id"`
		TaskID          uint       `json:"taskID"`
		UserID          uint       `json:"userID"`
		StartTime       time.Time  `json:"startTime"`
		EndTime         *time.Time `json:"endTime"`
		DurationMinutes *int       `json:"durationMinutes"`
		IsActive        bool       `json:"isActive"`
	}
)

func toTimeLogResp(l *model.TimeLog) TimeLogResp {
	return TimeLogResp{
		ID:              l.ID,
		TaskID:          l.TaskID,
		UserID:          l.UserID,
		StartTime:       l.StartTime,
		EndTime:         l.EndTime,
		DurationMinutes: l.DurationMinutes,
		IsActive:        l.IsActive,
	}
}

// ListTimeLogs godoc
// @Summary List time logs of a task
// @Description Time logs ordered by start time
// @Tags TimeLog
// @Accept json
// @Produce json
// @Security Bearer
// @Param taskID query int true "task ID"
// @Success 200 {object} resputil.Response[[]TimeLogResp] "time logs"
// @Failure 400 {object} resputil.Response[any] "request parameter error"
// @Router /v1/timelogs [get]
func (mgr *TimeLogMgr) ListTimeLogs(c *gin.Context) {
	var req ListTimeLogsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	logs, err := mgr.engine.ListTimeLogs(c, req.TaskID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, lo.Map(logs, func(l model.TimeLog, _ int) TimeLogResp {
		return toTimeLogResp(&l)
	}))
}

// StartTimeLog godoc
// @Summary Start a timer
// @Description Open an active time log for the current user on a task
// @Tags TimeLog
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body StartTimeLogReq true "task"
// @Success 200 {object} resputil.Response[TimeLogResp] "started log"
// @Failure 409 {object} resputil.Response[any] "a timer is already running"
// @Router /v1/timelogs/start [post]
func (mgr *TimeLogMgr) StartTimeLog(c *gin.Context) {
	var req StartTimeLogReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	token := util.GetToken(c)
	log, err := mgr.engine.StartTimeLog(c, req.TaskID, token.UserID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toTimeLogResp(log))
}

// StopTimeLog godoc
// @Summary Stop a timer
// @Description Close the log, record the duration and refresh the task's actual hours
// @Tags TimeLog
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "time log ID"
// @Success 200 {object} resputil.Response[TimeLogResp] "stopped log"
// @Failure 409 {object} resputil.Response[any] "log already stopped"
// @Router /v1/timelogs/{id}/stop [put]
func (mgr *TimeLogMgr) StopTimeLog(c *gin.Context) {
	var req TimeLogIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	token := util.GetToken(c)
	log, err := mgr.engine.StopTimeLog(c, req.ID, token.UserID)
	if err != nil {
		resputil.WrapServiceError(c, err)
		return
	}
	resputil.Success(c, toTimeLogResp(log))
}
