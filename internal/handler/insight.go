package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/internal/resputil"
	"github.com/warden-lab/warden/internal/util"
	"github.com/warden-lab/warden/pkg/accesspolicy"
	"github.com/warden-lab/warden/pkg/enforcement"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewInsightMgr)
}

const insightCollection = "insights"

// InsightMgr serves the insights guarded collection. Every read passes the
// result set through the enforcement gate; every write asks the gate before
// the row reaches storage.
type InsightMgr struct {
	name     string
	db       *gorm.DB
	resolver *accesspolicy.Resolver
	gate     *enforcement.Gate
}

func NewInsightMgr(conf *RegisterConfig) Manager {
	return &InsightMgr{
		name:     "insights",
		db:       conf.DB,
		resolver: conf.Resolver,
		gate:     conf.Gate,
	}
}

func (mgr *InsightMgr) GetName() string { return mgr.name }

func (mgr *InsightMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *InsightMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.POST("", mgr.Create)
}

func (mgr *InsightMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type InsightListReq struct {
	NameLike *string `form:"name_like"`
}

// List godoc
//
//	@Summary		List insights visible to the caller
//	@Description	Result set is filtered to owners in the caller's allowed set
//	@Tags			Insight
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]model.Insight]	"visible insights"
//	@Failure		404	{object}	resputil.Response[any]				"unknown caller project"
//	@Router			/v1/insights [get]
func (mgr *InsightMgr) List(c *gin.Context) {
	scope, ok := resolveCallerScope(c, mgr.resolver)
	if !ok {
		return
	}

	var req InsightListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	db := mgr.db.WithContext(c)
	if req.NameLike != nil {
		db = db.Where("name LIKE ?", "%"+*req.NameLike+"%")
	}

	var insights []*model.Insight
	if err := db.Order("id").Find(&insights).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	token := util.GetToken(c)
	visible := enforcement.FilterRead(mgr.gate, scope, insightCollection, insights, token.OperatorName)
	resputil.Success(c, visible)
}

type InsightCreateReq struct {
	Name    string         `json:"name" binding:"required"`
	Content datatypes.JSON `json:"content"`
	// OwnerID defaults to the caller project. Writing with another owner is
	// exactly the cross-project write the gate rejects once enforcing.
	OwnerID *string `json:"ownerID"`
}

// Create godoc
//
//	@Summary		Create an insight
//	@Description	The write is checked against the caller scope before it reaches storage
//	@Tags			Insight
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			data	body		InsightCreateReq				true	"insight"
//	@Success		200		{object}	resputil.Response[model.Insight]	"created insight"
//	@Failure		403		{object}	resputil.Response[any]				"write denied"
//	@Router			/v1/insights [post]
func (mgr *InsightMgr) Create(c *gin.Context) {
	scope, ok := resolveCallerScope(c, mgr.resolver)
	if !ok {
		return
	}

	var req InsightCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	owner := scope.ProjectID
	if req.OwnerID != nil {
		owner = *req.OwnerID
	}

	insight := model.Insight{
		OwnerID: owner,
		Name:    req.Name,
		Content: req.Content,
	}
	after, _ := json.Marshal(insight)

	token := util.GetToken(c)
	if err := mgr.gate.CheckWrite(scope, insightCollection, owner, token.OperatorName, nil, after); err != nil {
		respondWriteError(c, err)
		return
	}

	if err := mgr.db.WithContext(c).Create(&insight).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, insight)
}
