package internal

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warden-lab/warden/internal/handler"
	"github.com/warden-lab/warden/internal/middleware"
)

type Backend struct {
	R *gin.Engine
}

// Register builds the gin engine: health and metrics endpoints, then the
// public/protected/admin route groups for every registered manager.
func Register(conf *handler.RegisterConfig) *Backend {
	s := new(Backend)
	s.R = gin.Default()

	s.R.GET("/v1/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})
	s.R.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.RegisterService(conf)

	return s
}

func (b *Backend) RegisterService(conf *handler.RegisterConfig) {
	managers := registerManagers(conf)

	publicRouter := b.R.Group("/v1")

	protectedRouter := b.R.Group("/v1")
	protectedRouter.Use(middleware.AuthProtected())

	adminRouter := b.R.Group("/v1/admin")
	adminRouter.Use(middleware.AuthProtected(), middleware.AuthAdmin())

	for _, mgr := range managers {
		mgr.RegisterPublic(publicRouter.Group(mgr.GetName()))
		mgr.RegisterProtected(protectedRouter.Group(mgr.GetName()))
		mgr.RegisterAdmin(adminRouter.Group(mgr.GetName()))
	}
}
