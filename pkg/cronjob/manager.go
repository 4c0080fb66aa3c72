// Package cronjob schedules the recurring jobs of the server: the task
// deadline scan and the rate-limiter sweep.
package cronjob

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	"github.com/build-lab/girder/pkg/config"
	"github.com/build-lab/girder/pkg/ratelimit"
	"github.com/build-lab/girder/pkg/taskctl"
)

type CronJobManager struct {
	taskEngine *taskctl.Engine
	limiter    *ratelimit.Limiter
	cron       *cron.Cron
	cronMutex  sync.Mutex
}

func NewCronJobManager(taskEngine *taskctl.Engine, limiter *ratelimit.Limiter) *CronJobManager {
	return &CronJobManager{
		taskEngine: taskEngine,
		limiter:    limiter,
		cron:       cron.New(cron.WithLocation(time.Local)),
	}
}

// Start registers the jobs and starts the scheduler.
func (cm *CronJobManager) Start() error {
	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()

	conf := config.GetConfig().Cron
	deadlineSpec := conf.DeadlineScanSpec
	if deadlineSpec == "" {
		deadlineSpec = "0 8 * * *"
	}
	window := time.Duration(conf.DeadlineWindowHours) * time.Hour
	if window == 0 {
		window = 48 * time.Hour
	}

	if _, err := cm.cron.AddFunc(deadlineSpec, func() {
		cm.scanDeadlines(window)
	}); err != nil {
		return err
	}

	if cm.limiter != nil {
		if _, err := cm.cron.AddFunc("@every 5m", cm.limiter.Sweep); err != nil {
			return err
		}
	}

	cm.cron.Start()
	klog.Info("cron jobs started")
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (cm *CronJobManager) Stop() {
	cm.cronMutex.Lock()
	defer cm.cronMutex.Unlock()
	<-cm.cron.Stop().Done()
}

// scanDeadlines alerts assignees of tasks due within the window.
func (cm *CronJobManager) scanDeadlines(window time.Duration) {
	ctx := context.Background()
	tasks, err := cm.taskEngine.TasksDueSoon(ctx, window)
	if err != nil {
		klog.Errorf("deadline scan failed: %v", err)
		return
	}
	for i := range tasks {
		cm.taskEngine.NotifyDeadline(ctx, &tasks[i])
	}
	klog.Infof("deadline scan done, %d tasks due within %s", len(tasks), window)
}
