package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	approvalsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "girder_approvals_processed_total",
		Help: "Project approval decisions processed, by decision.",
	}, []string{"decision"})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "girder_project_status_transitions_total",
		Help: "Project status transitions, by from and to status.",
	}, []string{"from", "to"})
)
