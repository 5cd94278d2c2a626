package shadow_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/pkg/accesspolicy"
	"github.com/warden-lab/warden/pkg/shadow"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Project{}, &model.ReadPermission{}, &model.MigrationStatus{}, &model.AuditLog{},
	))
	return db
}

func scopeInPhase(t *testing.T, db *gorm.DB, projectID string, phase model.Phase) *accesspolicy.CallerScope {
	t.Helper()
	require.NoError(t, db.Create(&model.Project{
		ProjectID: projectID, Name: projectID,
		AccessLevel: model.AccessLevelIsolated, Status: model.StatusActive,
	}).Error)
	require.NoError(t, db.Create(&model.MigrationStatus{
		ProjectID: projectID, Phase: phase, Enabled: true, PhaseEnteredAt: time.Now(),
	}).Error)
	scope, err := accesspolicy.NewResolver(db).ResolveScope(context.Background(), projectID)
	require.NoError(t, err)
	return scope
}

func countAudit(t *testing.T, db *gorm.DB, denied bool) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.AuditLog{}).
		Where("would_be_denied = ?", denied).Count(&n).Error)
	return n
}

func TestAppendFlushesOnStop(t *testing.T) {
	db := newTestDB(t)
	l := shadow.NewLogger(db)
	l.Start(context.Background())

	entries := make([]model.AuditLog, 3)
	for i := range entries {
		entries[i] = model.AuditLog{
			LoggedAt:          time.Now(),
			CallerProjectID:   "alpha",
			CollectionName:    "insights",
			Operation:         model.OperationWrite,
			RowOwnerProjectID: "beta",
			WouldBeDenied:     true,
			ActingIdentity:    "svc@alpha",
		}
	}
	l.Append(entries)
	l.Stop()

	assert.EqualValues(t, 3, countAudit(t, db, true))
}

func TestRecordIfViolatingOnlyInShadow(t *testing.T) {
	db := newTestDB(t)
	l := shadow.NewLogger(db)
	l.Start(context.Background())

	pending := scopeInPhase(t, db, "pending-proj", model.PhasePending)
	l.RecordIfViolating(pending, "insights", model.OperationRead, []string{"other"}, "svc")
	l.RecordOperation(pending, "insights", model.OperationRead, "svc")

	l.Stop()
	assert.EqualValues(t, 0, countAudit(t, db, true))
	assert.EqualValues(t, 0, countAudit(t, db, false))
}

func TestRecordIfViolatingSkipsAllowedAndOwnerless(t *testing.T) {
	db := newTestDB(t)
	l := shadow.NewLogger(db)
	l.Start(context.Background())

	scope := scopeInPhase(t, db, "alpha", model.PhaseShadow)
	l.RecordIfViolating(scope, "insights", model.OperationRead,
		[]string{"alpha", "", "beta", "gamma"}, "svc@alpha")

	l.Stop()

	var logs []model.AuditLog
	require.NoError(t, db.Where("would_be_denied = ?", true).Order("row_owner_project_id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, "beta", logs[0].RowOwnerProjectID)
	assert.Equal(t, "gamma", logs[1].RowOwnerProjectID)
	assert.Equal(t, model.OperationRead, logs[0].Operation)
	assert.Equal(t, "svc@alpha", logs[0].ActingIdentity)
}

func TestRecordOperationCountsActivity(t *testing.T) {
	db := newTestDB(t)
	l := shadow.NewLogger(db)
	l.Start(context.Background())

	scope := scopeInPhase(t, db, "alpha", model.PhaseShadow)
	l.RecordOperation(scope, "insights", model.OperationRead, "svc@alpha")
	l.RecordOperation(scope, "memories", model.OperationWrite, "svc@alpha")

	l.Stop()
	assert.EqualValues(t, 2, countAudit(t, db, false))
	assert.EqualValues(t, 0, countAudit(t, db, true))
}

func TestAppendNeverBlocksWhenQueueIsFull(t *testing.T) {
	db := newTestDB(t)
	l := shadow.NewLogger(db)
	// Worker never started: the queue fills and further appends must drop
	// instead of blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			l.Append([]model.AuditLog{{LoggedAt: time.Now(), CallerProjectID: "alpha"}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Append blocked on a full queue")
	}
}
