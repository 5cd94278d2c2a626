package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/warden-lab/warden/pkg/accesspolicy"
	"github.com/warden-lab/warden/pkg/enforcement"
	"github.com/warden-lab/warden/pkg/rollout"
	"github.com/warden-lab/warden/pkg/shadow"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the shared dependencies every manager may need.
type RegisterConfig struct {
	DB       *gorm.DB
	Resolver *accesspolicy.Resolver
	Gate     *enforcement.Gate
	Shadow   *shadow.Logger
	Rollout  *rollout.Controller
}

type ManagerRegisterFunc func(conf *RegisterConfig) Manager

// Registers is appended to by each manager's init; route registration walks
// it once at startup.
var Registers []ManagerRegisterFunc
