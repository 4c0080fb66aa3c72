package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/build-lab/girder/pkg/event"
	"github.com/build-lab/girder/pkg/ratelimit"
	"github.com/build-lab/girder/pkg/taskctl"
	"github.com/build-lab/girder/pkg/workflow"
)

// Manager is one routable feature area. Each manager registers its routes
// on the public, protected and admin groups.
type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the shared dependencies handed to every manager.
type RegisterConfig struct {
	DB             *gorm.DB
	Sink           event.Sink
	ApprovalEngine *workflow.Engine
	TaskEngine     *taskctl.Engine
	Limiter        *ratelimit.Limiter
}

type ManagerRegisterFunc func(config *RegisterConfig) Manager

// Registers collects the manager constructors; each handler file appends
// its own in init().
var Registers []ManagerRegisterFunc
