package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warden-lab/warden/internal/resputil"
	"github.com/warden-lab/warden/pkg/accesspolicy"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewContextMgr)
}

// ContextMgr serves the context-setting API: call sites resolve their caller
// project into an explicit scope before touching guarded collections. The
// scope is returned to the caller and also built fresh inside every guarded
// handler; there is no ambient session state to reset afterwards.
type ContextMgr struct {
	name     string
	resolver *accesspolicy.Resolver
}

func NewContextMgr(conf *RegisterConfig) Manager {
	return &ContextMgr{
		name:     "context",
		resolver: conf.Resolver,
	}
}

func (mgr *ContextMgr) GetName() string { return mgr.name }

func (mgr *ContextMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ContextMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("", mgr.SetCallerContext)
}

func (mgr *ContextMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	SetContextReq struct {
		ProjectID string `json:"projectID" binding:"required"`
	}

	SetContextResp struct {
		ProjectID       string   `json:"projectID"`
		AccessLevel     string   `json:"accessLevel"`
		Phase           string   `json:"phase"`
		AllowedProjects []string `json:"allowedProjects"`
	}
)

// SetCallerContext godoc
//
//	@Summary		Resolve a caller project into its access scope
//	@Description	Returns the rollout phase, access level and allowed-owner set for a project
//	@Tags			Context
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			data	body		SetContextReq						true	"caller project"
//	@Success		200		{object}	resputil.Response[SetContextResp]	"resolved scope"
//	@Failure		404		{object}	resputil.Response[any]				"unknown project"
//	@Router			/v1/context [post]
func (mgr *ContextMgr) SetCallerContext(c *gin.Context) {
	var req SetContextReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	scope, err := mgr.resolver.ResolveScope(c, req.ProjectID)
	if err != nil {
		var unknown *accesspolicy.UnknownProjectError
		if errors.As(err, &unknown) {
			resputil.HTTPError(c, http.StatusNotFound, unknown.Error(), resputil.UnknownProject)
			return
		}
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, SetContextResp{
		ProjectID:       scope.ProjectID,
		AccessLevel:     string(scope.AccessLevel),
		Phase:           string(scope.Phase),
		AllowedProjects: scope.AllowedProjects(),
	})
}
