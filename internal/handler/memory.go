package handler

import (
	"encoding/json"
	"errors"
	"net/http"

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
	Registers = append(Registers, NewMemoryMgr)
}

const memoryCollection = "memories"

type MemoryMgr struct {
	name     string
	db       *gorm.DB
	resolver *accesspolicy.Resolver
	gate     *enforcement.Gate
}

func NewMemoryMgr(conf *RegisterConfig) Manager {
	return &MemoryMgr{
		name:     "memories",
		db:       conf.DB,
		resolver: conf.Resolver,
		gate:     conf.Gate,
	}
}

func (mgr *MemoryMgr) GetName() string { return mgr.name }

func (mgr *MemoryMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *MemoryMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.POST("", mgr.Create)
	g.PUT("/:id", mgr.Update)
}

func (mgr *MemoryMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// List godoc
//
//	@Summary		List memories visible to the caller
//	@Tags			Memory
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]model.Memory]	"visible memories"
//	@Router			/v1/memories [get]
func (mgr *MemoryMgr) List(c *gin.Context) {
	scope, ok := resolveCallerScope(c, mgr.resolver)
	if !ok {
		return
	}

	var memories []*model.Memory
	if err := mgr.db.WithContext(c).Order("id").Find(&memories).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	token := util.GetToken(c)
	visible := enforcement.FilterRead(mgr.gate, scope, memoryCollection, memories, token.OperatorName)
	resputil.Success(c, visible)
}

type MemoryCreateReq struct {
	Name    string         `json:"name" binding:"required"`
	Content datatypes.JSON `json:"content"`
	OwnerID *string        `json:"ownerID"`
}

// Create godoc
//
//	@Summary		Create a memory
//	@Tags			Memory
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[model.Memory]	"created memory"
//	@Failure		403	{object}	resputil.Response[any]			"write denied"
//	@Router			/v1/memories [post]
func (mgr *MemoryMgr) Create(c *gin.Context) {
	scope, ok := resolveCallerScope(c, mgr.resolver)
	if !ok {
		return
	}

	var req MemoryCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	owner := scope.ProjectID
	if req.OwnerID != nil {
		owner = *req.OwnerID
	}

	memory := model.Memory{
		OwnerID: owner,
		Name:    req.Name,
		Content: req.Content,
	}
	after, _ := json.Marshal(memory)

	token := util.GetToken(c)
	if err := mgr.gate.CheckWrite(scope, memoryCollection, owner, token.OperatorName, nil, after); err != nil {
		respondWriteError(c, err)
		return
	}

	if err := mgr.db.WithContext(c).Create(&memory).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, memory)
}

type MemoryUpdateReq struct {
	Content datatypes.JSON `json:"content" binding:"required"`
}

// Update godoc
//
//	@Summary		Update a memory's content
//	@Description	The existing row's owner decides the write check; before and after snapshots go to the audit trail on denial
//	@Tags			Memory
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[model.Memory]	"updated memory"
//	@Failure		403	{object}	resputil.Response[any]			"write denied"
//	@Router			/v1/memories/{id} [put]
func (mgr *MemoryMgr) Update(c *gin.Context) {
	scope, ok := resolveCallerScope(c, mgr.resolver)
	if !ok {
		return
	}

	var req MemoryUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var memory model.Memory
	err := mgr.db.WithContext(c).Where("id = ?", c.Param("id")).First(&memory).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.HTTPError(c, http.StatusNotFound, "memory not found", resputil.NotSpecified)
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	before, _ := json.Marshal(memory)
	updated := memory
	updated.Content = req.Content
	after, _ := json.Marshal(updated)

	token := util.GetToken(c)
	if err := mgr.gate.CheckWrite(scope, memoryCollection, memory.OwnerID, token.OperatorName, before, after); err != nil {
		respondWriteError(c, err)
		return
	}

	if err := mgr.db.WithContext(c).Model(&memory).Update("content", req.Content).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, memory)
}
