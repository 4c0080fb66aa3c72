package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/internal/resputil"
)

type MetricsMgr struct {
	name string
	db   *gorm.DB
}

func NewMetricsMgr(conf *RegisterConfig) Manager {
	return &MetricsMgr{
		name: "metrics",
		db:   conf.DB,
	}
}

func (mgr *MetricsMgr) GetName() string { return mgr.name }

func (mgr *MetricsMgr) RegisterPublic(metrics *gin.RouterGroup) {
	metrics.GET("", mgr.GetMetrics)
}

func (mgr *MetricsMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *MetricsMgr) RegisterAdmin(_ *gin.RouterGroup) {}

var promHTTPHandler http.Handler

var activeProjectsGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "girder_active_projects_total",
		Help: "Number of projects currently in progress",
	},
)

var pendingApprovalsGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "girder_pending_approvals_total",
		Help: "Number of project approvals awaiting a decision",
	},
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewMetricsMgr)
	promHTTPHandler = promhttp.Handler()
	prometheus.MustRegister(activeProjectsGauge)
	prometheus.MustRegister(pendingApprovalsGauge)
}

// GetMetrics godoc
// @Summary Expose Prometheus metrics
// @Description Refreshes project gauges from the database, then serves the registry
// @Tags Metrics
// @Accept json
// @Produce json
// @Success 200 {array} resputil.Response[any] "metrics in Prometheus text format"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /metrics [get]
func (mgr *MetricsMgr) GetMetrics(c *gin.Context) {
	var active, pending int64
	if err := mgr.db.WithContext(c).Model(&model.Project{}).
		Where("status = ?", model.ProjectStatusInProgress).Count(&active).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if err := mgr.db.WithContext(c).Model(&model.ProjectApproval{}).
		Where("status = ?", model.ApprovalStatusPending).Count(&pending).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	activeProjectsGauge.Set(float64(active))
	pendingApprovalsGauge.Set(float64(pending))

	promHTTPHandler.ServeHTTP(c.Writer, c.Request)
}
