package taskctl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var taskTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "girder_task_status_transitions_total",
	Help: "Task status transitions, by target status.",
}, []string{"to"})
