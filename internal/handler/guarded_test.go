package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/internal/resputil"
	"github.com/warden-lab/warden/internal/util"
)

func seedGuardedRows(t *testing.T, db *gorm.DB) {
	t.Helper()
	insights := []model.Insight{
		{OwnerID: "io", Name: "pipeline"},
		{OwnerID: "sm", Name: "retention"},
		{OwnerID: "motoko", Name: "ghosted"},
		{OwnerID: "", Name: "orphan"},
	}
	require.NoError(t, db.Create(&insights).Error)
	memories := []model.Memory{
		{OwnerID: "io", Name: "ingest-notes"},
		{OwnerID: "motoko", Name: "private-notes"},
	}
	require.NoError(t, db.Create(&memories).Error)
}

func callerHeader(projectID string) map[string]string {
	return map[string]string{util.CallerProjectHeader: projectID}
}

func insightOwners(t *testing.T, env envelope) []string {
	t.Helper()
	var rows []model.Insight
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	owners := make([]string, len(rows))
	for i, r := range rows {
		owners[i] = r.OwnerID
	}
	return owners
}

func TestInsightListFiltersPerTier(t *testing.T) {
	db := newHandlerTestDB(t)
	seedRegistry(t, db)
	seedGuardedRows(t, db)
	setProjectPhase(t, db, "sm", model.PhaseEnforcing)
	setProjectPhase(t, db, "aa", model.PhaseEnforcing)
	r := newTestRouter(newHandlerTestConfig(db), NewInsightMgr)

	// Shared caller: own rows plus the granted target.
	code, env := doRequest(t, r, http.MethodGet, "/v1/insights", nil, callerHeader("sm"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"io", "sm"}, insightOwners(t, env))

	// Super caller: every owned row, but never the ownerless one.
	code, env = doRequest(t, r, http.MethodGet, "/v1/insights", nil, callerHeader("aa"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"io", "sm", "motoko"}, insightOwners(t, env))

	// Pending caller: enforcement off, full set minus the ownerless row.
	code, env = doRequest(t, r, http.MethodGet, "/v1/insights", nil, callerHeader("motoko"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"io", "sm", "motoko"}, insightOwners(t, env))
}

func TestGuardedRequestUnknownCaller(t *testing.T) {
	db := newHandlerTestDB(t)
	seedRegistry(t, db)
	seedGuardedRows(t, db)
	r := newTestRouter(newHandlerTestConfig(db), NewInsightMgr)

	// Missing header and unregistered project both resolve to nothing; no
	// rows leak in either case.
	code, env := doRequest(t, r, http.MethodGet, "/v1/insights", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, resputil.UnknownProject, env.Code)
	assert.Equal(t, "null", string(env.Data))

	code, env = doRequest(t, r, http.MethodGet, "/v1/insights", nil, callerHeader("ghost"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, resputil.UnknownProject, env.Code)
	assert.Equal(t, "null", string(env.Data))
}

func TestInsightCreateCrossProjectDenied(t *testing.T) {
	db := newHandlerTestDB(t)
	seedRegistry(t, db)
	setProjectPhase(t, db, "sm", model.PhaseEnforcing)
	r := newTestRouter(newHandlerTestConfig(db), NewInsightMgr)

	owner := "motoko"
	code, env := doRequest(t, r, http.MethodPost, "/v1/insights",
		InsightCreateReq{Name: "stolen", OwnerID: &owner}, callerHeader("sm"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, resputil.WriteDenied, env.Code)

	// The mutation never reached storage.
	var count int64
	require.NoError(t, db.Model(&model.Insight{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestInsightCreateOwnerlessRejectedEvenPending(t *testing.T) {
	db := newHandlerTestDB(t)
	seedRegistry(t, db)
	r := newTestRouter(newHandlerTestConfig(db), NewInsightMgr)

	owner := ""
	code, env := doRequest(t, r, http.MethodPost, "/v1/insights",
		InsightCreateReq{Name: "nobody", OwnerID: &owner}, callerHeader("io"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, resputil.WriteDenied, env.Code)
}

func TestInsightCreateOwnRowSucceeds(t *testing.T) {
	db := newHandlerTestDB(t)
	seedRegistry(t, db)
	setProjectPhase(t, db, "io", model.PhaseEnforcing)
	r := newTestRouter(newHandlerTestConfig(db), NewInsightMgr)

	code, env := doRequest(t, r, http.MethodPost, "/v1/insights",
		InsightCreateReq{Name: "throughput"}, callerHeader("io"))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, resputil.OK, env.Code)

	var created model.Insight
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "io", created.OwnerID)
	assert.Equal(t, "throughput", created.Name)
}

func TestGuardedCollectionsShareOneScope(t *testing.T) {
	db := newHandlerTestDB(t)
	seedRegistry(t, db)
	seedGuardedRows(t, db)
	setProjectPhase(t, db, "sm", model.PhaseEnforcing)
	r := newTestRouter(newHandlerTestConfig(db), NewInsightMgr, NewMemoryMgr)

	// The same caller sees both collections filtered by the same rules:
	// the grant on io applies to memories exactly as it does to insights.
	code, env := doRequest(t, r, http.MethodGet, "/v1/insights", nil, callerHeader("sm"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"io", "sm"}, insightOwners(t, env))

	code, env = doRequest(t, r, http.MethodGet, "/v1/memories", nil, callerHeader("sm"))
	require.Equal(t, http.StatusOK, code)
	var memories []model.Memory
	require.NoError(t, json.Unmarshal(env.Data, &memories))
	require.Len(t, memories, 1)
	assert.Equal(t, "io", memories[0].OwnerID)
}

func TestMemoryUpdateCrossProjectDenied(t *testing.T) {
	db := newHandlerTestDB(t)
	seedRegistry(t, db)
	seedGuardedRows(t, db)
	setProjectPhase(t, db, "sm", model.PhaseEnforcing)
	r := newTestRouter(newHandlerTestConfig(db), NewMemoryMgr)

	var target model.Memory
	require.NoError(t, db.Where("owner_id = ?", "io").First(&target).Error)

	// Read grant on io, but the row owner decides writes.
	code, env := doRequest(t, r, http.MethodPut, fmt.Sprintf("/v1/memories/%d", target.ID),
		MemoryUpdateReq{Content: datatypes.JSON(`{"v":2}`)}, callerHeader("sm"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, resputil.WriteDenied, env.Code)
}

func TestAuditListPagination(t *testing.T) {
	db := newHandlerTestDB(t)
	seedRegistry(t, db)
	base := time.Now().Add(-time.Hour)
	entries := make([]model.AuditLog, 5)
	for i := range entries {
		entries[i] = model.AuditLog{
			LoggedAt:          base.Add(time.Duration(i) * time.Minute),
			CallerProjectID:   "sm",
			CollectionName:    "insights",
			Operation:         model.OperationRead,
			RowOwnerProjectID: "motoko",
			WouldBeDenied:     true,
		}
	}
	require.NoError(t, db.Create(&entries).Error)
	r := newTestRouter(newHandlerTestConfig(db), NewAuditMgr)

	code, env := doRequest(t, r, http.MethodGet,
		"/v1/admin/audit?page_index=0&page_size=2&order=asc", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var resp AuditListResp
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.EqualValues(t, 5, resp.Count)
	require.Len(t, resp.Rows, 2)
	assert.True(t, resp.Rows[0].LoggedAt.Before(resp.Rows[1].LoggedAt))

	// Missing pagination parameters are a binding error.
	code, env = doRequest(t, r, http.MethodGet, "/v1/admin/audit", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, resputil.InvalidRequest, env.Code)
}
