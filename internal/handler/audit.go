package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/internal/payload"
	"github.com/warden-lab/warden/internal/resputil"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAuditMgr)
}

type AuditMgr struct {
	name string
	db   *gorm.DB
}

func NewAuditMgr(conf *RegisterConfig) Manager {
	return &AuditMgr{
		name: "audit",
		db:   conf.DB,
	}
}

func (mgr *AuditMgr) GetName() string { return mgr.name }

func (mgr *AuditMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *AuditMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *AuditMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListEntries)
	g.GET("/violations", mgr.CountViolations)
}

type (
	AuditListReq struct {
		payload.ListReqQuery
		// Filters
		CallerProjectID *string       `form:"caller_project_id"`
		Collection      *string       `form:"collection"`
		WouldBeDenied   *bool         `form:"would_be_denied"`
		Since           *time.Time    `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
		Order           payload.Order `form:"order"`
	}

	AuditListResp payload.ListResp[model.AuditLog]
)

// ListEntries godoc
//
//	@Summary		List audit entries
//	@Description	Time-ordered audit log with filters, for forensic review
//	@Tags			Audit
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[AuditListResp]	"entries"
//	@Router			/v1/admin/audit [get]
func (mgr *AuditMgr) ListEntries(c *gin.Context) {
	var req AuditListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	db := mgr.db.WithContext(c).Model(&model.AuditLog{})
	if req.CallerProjectID != nil {
		db = db.Where("caller_project_id = ?", *req.CallerProjectID)
	}
	if req.Collection != nil {
		db = db.Where("collection_name = ?", *req.Collection)
	}
	if req.WouldBeDenied != nil {
		db = db.Where("would_be_denied = ?", *req.WouldBeDenied)
	}
	if req.Since != nil {
		db = db.Where("logged_at >= ?", *req.Since)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	sort := "logged_at DESC"
	if req.Order == payload.Asc {
		sort = "logged_at ASC"
	}

	var entries []model.AuditLog
	err := db.Order(sort).
		Offset((*req.PageIndex) * (*req.PageSize)).
		Limit(*req.PageSize).
		Find(&entries).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, AuditListResp{Rows: entries, Count: count})
}

type (
	ViolationsReq struct {
		CallerProjectID string     `form:"caller_project_id" binding:"required"`
		Since           *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	}

	ViolationsResp struct {
		CallerProjectID string `json:"callerProjectID"`
		Violations      int64  `json:"violations"`
	}
)

// CountViolations godoc
//
//	@Summary		Count would-be denials for a project
//	@Tags			Audit
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[ViolationsResp]	"violation count"
//	@Router			/v1/admin/audit/violations [get]
func (mgr *AuditMgr) CountViolations(c *gin.Context) {
	var req ViolationsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	db := mgr.db.WithContext(c).Model(&model.AuditLog{}).
		Where("caller_project_id = ? AND would_be_denied = ?", req.CallerProjectID, true)
	if req.Since != nil {
		db = db.Where("logged_at >= ?", *req.Since)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, ViolationsResp{CallerProjectID: req.CallerProjectID, Violations: count})
}
