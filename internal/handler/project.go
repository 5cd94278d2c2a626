package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/internal/payload"
	"github.com/warden-lab/warden/internal/resputil"
	"github.com/warden-lab/warden/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewProjectMgr)
}

type ProjectMgr struct {
	name string
	db   *gorm.DB
}

func NewProjectMgr(conf *RegisterConfig) Manager {
	return &ProjectMgr{
		name: "projects",
		db:   conf.DB,
	}
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListAll)
	g.GET("/:id/grants", mgr.ListGrants)
}

func (mgr *ProjectMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("", mgr.Create)
	g.PUT("/:id/access-level", mgr.UpdateAccessLevel)
	g.POST("/:id/grants", mgr.CreateGrant)
	g.DELETE("/:id/grants/:target", mgr.DeleteGrant)
}

type (
	ProjectResp struct {
		ProjectID   string            `json:"projectID"`
		Name        string            `json:"name"`
		AccessLevel model.AccessLevel `json:"accessLevel"`
		Status      model.Status      `json:"status"`
	}

	ProjectListResp payload.ListResp[ProjectResp]
)

// ListAll godoc
//
//	@Summary		List all projects
//	@Description	List every registered project with its access tier
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[ProjectListResp]	"project list"
//	@Router			/v1/projects [get]
func (mgr *ProjectMgr) ListAll(c *gin.Context) {
	var projects []ProjectResp
	err := mgr.db.WithContext(c).Model(&model.Project{}).
		Select("project_id", "name", "access_level", "status").
		Order("project_id").
		Scan(&projects).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, ProjectListResp{Rows: projects, Count: int64(len(projects))})
}

type (
	ProjectIDReq struct {
		ID string `uri:"id" binding:"required"`
	}

	ProjectCreateReq struct {
		ProjectID   string            `json:"projectID"`
		Name        string            `json:"name" binding:"required"`
		Description *string           `json:"description"`
		AccessLevel model.AccessLevel `json:"accessLevel" binding:"required"`
	}
)

// Create godoc
//
//	@Summary		Onboard a project
//	@Description	Create a project and its pending migration status in one transaction
//	@Tags			Project
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			data	body		ProjectCreateReq			true	"project info"
//	@Success		200		{object}	resputil.Response[string]	"created project id"
//	@Failure		400		{object}	resputil.Response[any]		"invalid access level"
//	@Router			/v1/admin/projects [post]
func (mgr *ProjectMgr) Create(c *gin.Context) {
	var req ProjectCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if !req.AccessLevel.Valid() {
		resputil.BadRequestError(c, fmt.Sprintf("invalid access level %q", req.AccessLevel))
		return
	}
	if req.ProjectID == "" {
		req.ProjectID = uuid.NewString()
	}

	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		project := model.Project{
			ProjectID:   req.ProjectID,
			Name:        req.Name,
			Description: req.Description,
			AccessLevel: req.AccessLevel,
			Status:      model.StatusActive,
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		status := model.MigrationStatus{
			ProjectID:      req.ProjectID,
			Phase:          model.PhasePending,
			Enabled:        true,
			PhaseEnteredAt: time.Now(),
		}
		return tx.Create(&status).Error
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, req.ProjectID)
}

type UpdateAccessLevelReq struct {
	AccessLevel model.AccessLevel `json:"accessLevel" binding:"required"`
}

// UpdateAccessLevel godoc
//
//	@Summary		Change a project's access tier
//	@Tags			Project
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[string]	"updated"
//	@Failure		404	{object}	resputil.Response[any]		"unknown project"
//	@Router			/v1/admin/projects/{id}/access-level [put]
func (mgr *ProjectMgr) UpdateAccessLevel(c *gin.Context) {
	var idReq ProjectIDReq
	var req UpdateAccessLevelReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if !req.AccessLevel.Valid() {
		resputil.BadRequestError(c, fmt.Sprintf("invalid access level %q", req.AccessLevel))
		return
	}

	res := mgr.db.WithContext(c).Model(&model.Project{}).
		Where("project_id = ?", idReq.ID).
		Update("access_level", req.AccessLevel)
	if res.Error != nil {
		resputil.Error(c, res.Error.Error(), resputil.NotSpecified)
		return
	}
	if res.RowsAffected == 0 {
		resputil.HTTPError(c, http.StatusNotFound, fmt.Sprintf("unknown project %q", idReq.ID), resputil.UnknownProject)
		return
	}
	resputil.Success(c, "access level updated")
}

type GrantReq struct {
	TargetProjectID string `json:"targetProjectID" binding:"required"`
}

// CreateGrant godoc
//
//	@Summary		Grant read access
//	@Description	Allow a shared-tier reader to read rows owned by the target project
//	@Tags			Project
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[string]	"granted"
//	@Failure		400	{object}	resputil.Response[any]		"self grant or non-shared reader"
//	@Router			/v1/admin/projects/{id}/grants [post]
func (mgr *ProjectMgr) CreateGrant(c *gin.Context) {
	var idReq ProjectIDReq
	var req GrantReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if idReq.ID == req.TargetProjectID {
		resputil.BadRequestError(c, "a project cannot grant read access to itself")
		return
	}

	token := util.GetToken(c)
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		var reader model.Project
		if err := tx.Where("project_id = ?", idReq.ID).First(&reader).Error; err != nil {
			return fmt.Errorf("reader project %q not found", idReq.ID)
		}
		if reader.AccessLevel != model.AccessLevelShared {
			return fmt.Errorf("project %q has access level %s, grants apply to shared projects only",
				idReq.ID, reader.AccessLevel)
		}
		var target model.Project
		if err := tx.Where("project_id = ?", req.TargetProjectID).First(&target).Error; err != nil {
			return fmt.Errorf("target project %q not found", req.TargetProjectID)
		}
		grant := model.ReadPermission{
			ReaderProjectID: idReq.ID,
			TargetProjectID: req.TargetProjectID,
			GrantedBy:       token.OperatorName,
		}
		return tx.Create(&grant).Error
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, "grant created")
}

// DeleteGrant godoc
//
//	@Summary		Revoke read access
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[string]	"revoked"
//	@Router			/v1/admin/projects/{id}/grants/{target} [delete]
func (mgr *ProjectMgr) DeleteGrant(c *gin.Context) {
	reader := c.Param("id")
	target := c.Param("target")

	res := mgr.db.WithContext(c).
		Where("reader_project_id = ? AND target_project_id = ?", reader, target).
		Delete(&model.ReadPermission{})
	if res.Error != nil {
		resputil.Error(c, res.Error.Error(), resputil.NotSpecified)
		return
	}
	if res.RowsAffected == 0 {
		resputil.HTTPError(c, http.StatusNotFound, "grant not found", resputil.NotSpecified)
		return
	}
	resputil.Success(c, "grant revoked")
}

type GrantResp struct {
	TargetProjectID string `json:"targetProjectID"`
	GrantedBy       string `json:"grantedBy"`
}

// ListGrants godoc
//
//	@Summary		List a reader's grants
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]GrantResp]	"grants"
//	@Router			/v1/projects/{id}/grants [get]
func (mgr *ProjectMgr) ListGrants(c *gin.Context) {
	var idReq ProjectIDReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var project model.Project
	err := mgr.db.WithContext(c).Where("project_id = ?", idReq.ID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, http.StatusNotFound, fmt.Sprintf("unknown project %q", idReq.ID), resputil.UnknownProject)
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	var grants []GrantResp
	err = mgr.db.WithContext(c).Model(&model.ReadPermission{}).
		Where("reader_project_id = ?", idReq.ID).
		Select("target_project_id", "granted_by").
		Order("target_project_id").
		Scan(&grants).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, grants)
}
