package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/internal/resputil"
	"github.com/warden-lab/warden/pkg/accesspolicy"
	"github.com/warden-lab/warden/pkg/rollout"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewMigrationMgr)
}

type MigrationMgr struct {
	name       string
	controller *rollout.Controller
}

func NewMigrationMgr(conf *RegisterConfig) Manager {
	return &MigrationMgr{
		name:       "migrations",
		controller: conf.Rollout,
	}
}

func (mgr *MigrationMgr) GetName() string { return mgr.name }

func (mgr *MigrationMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *MigrationMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/report", mgr.Report)
	g.GET("/:id/eligibility", mgr.CheckEligibility)
}

func (mgr *MigrationMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("/:id/transition", mgr.Transition)
	g.POST("/:id/rollback", mgr.Rollback)
	g.POST("/batch-transition", mgr.TransitionBatch)
}

type (
	MigrationIDReq struct {
		ID string `uri:"id" binding:"required"`
	}

	TransitionReq struct {
		Phase model.Phase `json:"phase" binding:"required"`
	}

	BatchTransitionReq struct {
		ProjectIDs []string    `json:"projectIDs" binding:"required"`
		Phase      model.Phase `json:"phase" binding:"required"`
	}
)

// respondTransitionError maps the rollout error taxonomy onto the API:
// unknown projects are 404 configuration errors, rejected transitions are
// 409 with the specific guard reason, anything else is infrastructure.
func respondTransitionError(c *gin.Context, err error) {
	var unknown *accesspolicy.UnknownProjectError
	var invalid *rollout.InvalidTransitionError
	var ineligible *rollout.EligibilityError
	var conflict *rollout.ConflictError
	switch {
	case errors.As(err, &unknown):
		resputil.HTTPError(c, http.StatusNotFound, err.Error(), resputil.UnknownProject)
	case errors.As(err, &invalid), errors.As(err, &ineligible), errors.As(err, &conflict):
		resputil.HTTPError(c, http.StatusConflict, err.Error(), resputil.TransitionRejected)
	default:
		resputil.Error(c, err.Error(), resputil.NotSpecified)
	}
}

// Transition godoc
//
//	@Summary		Advance a project's rollout phase
//	@Description	Forward transitions only; shadow to enforcing requires the eligibility gate
//	@Tags			Migration
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			data	body		TransitionReq				true	"target phase"
//	@Success		200		{object}	resputil.Response[string]	"transitioned"
//	@Failure		409		{object}	resputil.Response[any]		"transition rejected"
//	@Router			/v1/admin/migrations/{id}/transition [post]
func (mgr *MigrationMgr) Transition(c *gin.Context) {
	var idReq MigrationIDReq
	var req TransitionReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if err := mgr.controller.Transition(c, idReq.ID, req.Phase); err != nil {
		respondTransitionError(c, err)
		return
	}
	resputil.Success(c, "transitioned to "+string(req.Phase))
}

// Rollback godoc
//
//	@Summary		Roll a project back to pending
//	@Description	Emergency path, unconditional and always permitted
//	@Tags			Migration
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[string]	"rolled back"
//	@Router			/v1/admin/migrations/{id}/rollback [post]
func (mgr *MigrationMgr) Rollback(c *gin.Context) {
	var idReq MigrationIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if err := mgr.controller.Rollback(c, idReq.ID); err != nil {
		respondTransitionError(c, err)
		return
	}
	resputil.Success(c, "rolled back to pending")
}

// TransitionBatch godoc
//
//	@Summary		Advance several projects atomically
//	@Description	All-or-nothing; one invalid member rejects the whole batch
//	@Tags			Migration
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			data	body		BatchTransitionReq			true	"projects and target phase"
//	@Success		200		{object}	resputil.Response[string]	"transitioned"
//	@Failure		409		{object}	resputil.Response[any]		"batch rejected"
//	@Router			/v1/admin/migrations/batch-transition [post]
func (mgr *MigrationMgr) TransitionBatch(c *gin.Context) {
	var req BatchTransitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if err := mgr.controller.TransitionBatch(c, req.ProjectIDs, req.Phase); err != nil {
		respondTransitionError(c, err)
		return
	}
	resputil.Success(c, "batch transitioned to "+string(req.Phase))
}

// CheckEligibility godoc
//
//	@Summary		Inspect the shadow-to-enforcing gate for a project
//	@Tags			Migration
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[rollout.Eligibility]	"verdict with reasons"
//	@Router			/v1/migrations/{id}/eligibility [get]
func (mgr *MigrationMgr) CheckEligibility(c *gin.Context) {
	var idReq MigrationIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	eligibility, err := mgr.controller.CheckEligibility(c, idReq.ID)
	if err != nil {
		respondTransitionError(c, err)
		return
	}
	resputil.Success(c, eligibility)
}

// Report godoc
//
//	@Summary		Fleet rollout dashboard
//	@Description	Phase, window metrics and eligibility for every project
//	@Tags			Migration
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]rollout.ProjectSummary]	"summaries"
//	@Router			/v1/migrations/report [get]
func (mgr *MigrationMgr) Report(c *gin.Context) {
	summaries, err := mgr.controller.Report(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, summaries)
}
