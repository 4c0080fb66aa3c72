package helper

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/build-lab/girder/dao/query"
	"github.com/build-lab/girder/internal/handler"
	"github.com/build-lab/girder/pkg/alert"
	"github.com/build-lab/girder/pkg/config"
	"github.com/build-lab/girder/pkg/cronjob"
	"github.com/build-lab/girder/pkg/ratelimit"
	"github.com/build-lab/girder/pkg/taskctl"
	"github.com/build-lab/girder/pkg/workflow"
)

const defaultRequestsPerMinute = 120

// ConfigInitializer wires configuration into the service dependencies.
type ConfigInitializer struct {
	backendConfig *config.Config
}

func NewConfigInitializer() *ConfigInitializer {
	return &ConfigInitializer{
		backendConfig: config.GetConfig(),
	}
}

func (ci *ConfigInitializer) GetBackendConfig() *config.Config {
	return ci.backendConfig
}

// LoadDebugEnvironment reads .debug.env in debug mode so a local run can
// override the listen port without touching the config file.
func (ci *ConfigInitializer) LoadDebugEnvironment() error {
	if gin.Mode() != gin.DebugMode {
		return nil
	}

	err := godotenv.Load(".debug.env")
	if err != nil {
		return err
	}

	be := os.Getenv("GIRDER_BE_PORT")
	if be == "" {
		panic("GIRDER_BE_PORT is not set")
	}
	ci.backendConfig.ServerAddr = ":" + be

	return nil
}

// InitializeRegisterConfig opens the database, runs migrations and builds
// the engines every handler shares.
func (ci *ConfigInitializer) InitializeRegisterConfig() (*handler.RegisterConfig, error) {
	registerConfig := &handler.RegisterConfig{}

	// init db
	db := query.GetDB()
	if err := query.Migrate(db); err != nil {
		return nil, err
	}
	registerConfig.DB = db

	// notifications go out through SMTP
	sink := alert.GetAlertMgr()
	registerConfig.Sink = sink

	registerConfig.ApprovalEngine = workflow.NewEngine(db, sink)
	registerConfig.TaskEngine = taskctl.NewEngine(db, sink)

	rpm := ci.backendConfig.RateLimit.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	registerConfig.Limiter = ratelimit.New(rpm, time.Minute, ratelimit.RealClock())

	return registerConfig, nil
}

// StartCronJobs starts the deadline scan and limiter sweep scheduler.
func (ci *ConfigInitializer) StartCronJobs(registerConfig *handler.RegisterConfig) *cronjob.CronJobManager {
	cronManager := cronjob.NewCronJobManager(registerConfig.TaskEngine, registerConfig.Limiter)
	if err := cronManager.Start(); err != nil {
		klog.Fatalf("Failed to start cron jobs: %s", err)
	}
	return cronManager
}
