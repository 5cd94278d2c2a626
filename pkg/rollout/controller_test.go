package rollout

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
)

func newTestController(t *testing.T) (*Controller, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Project{}, &model.ReadPermission{}, &model.MigrationStatus{}, &model.AuditLog{},
	))
	c := NewController(db, Config{MinShadowDays: 7, MinTransactions: 5}, nil)
	return c, db
}

func addProject(t *testing.T, db *gorm.DB, projectID string, phase model.Phase, enteredAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.Project{
		ProjectID: projectID, Name: projectID,
		AccessLevel: model.AccessLevelIsolated, Status: model.StatusActive,
	}).Error)
	require.NoError(t, db.Create(&model.MigrationStatus{
		ProjectID: projectID, Phase: phase, Enabled: true, PhaseEnteredAt: enteredAt,
	}).Error)
}

func addActivity(t *testing.T, db *gorm.DB, projectID string, n int, denied bool) {
	t.Helper()
	entries := make([]model.AuditLog, n)
	for i := range entries {
		entries[i] = model.AuditLog{
			LoggedAt:        time.Now(),
			CallerProjectID: projectID,
			CollectionName:  "insights",
			Operation:       model.OperationRead,
			WouldBeDenied:   denied,
		}
	}
	require.NoError(t, db.Create(&entries).Error)
}

func currentPhase(t *testing.T, db *gorm.DB, projectID string) model.Phase {
	t.Helper()
	var status model.MigrationStatus
	require.NoError(t, db.Where("project_id = ?", projectID).First(&status).Error)
	return status.Phase
}

func TestTransitionForward(t *testing.T) {
	c, db := newTestController(t)
	addProject(t, db, "alpha", model.PhasePending, time.Now())
	ctx := context.Background()

	require.NoError(t, c.Transition(ctx, "alpha", model.PhaseShadow))
	assert.Equal(t, model.PhaseShadow, currentPhase(t, db, "alpha"))
}

func TestTransitionSkipAheadRejected(t *testing.T) {
	c, db := newTestController(t)
	addProject(t, db, "alpha", model.PhasePending, time.Now())
	ctx := context.Background()

	var invalid *InvalidTransitionError
	err := c.Transition(ctx, "alpha", model.PhaseEnforcing)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.PhasePending, invalid.From)
	assert.Equal(t, model.PhaseEnforcing, invalid.To)

	err = c.Transition(ctx, "alpha", model.PhaseComplete)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.PhasePending, currentPhase(t, db, "alpha"))
}

func TestTransitionIdempotentNoOp(t *testing.T) {
	c, db := newTestController(t)
	addProject(t, db, "alpha", model.PhaseShadow, time.Now())

	require.NoError(t, c.Transition(context.Background(), "alpha", model.PhaseShadow))
	assert.Equal(t, model.PhaseShadow, currentPhase(t, db, "alpha"))
}

func TestTransitionUnknownProject(t *testing.T) {
	c, _ := newTestController(t)

	var unknown *accesspolicy.UnknownProjectError
	err := c.Transition(context.Background(), "ghost", model.PhaseShadow)
	require.ErrorAs(t, err, &unknown)
}

func TestTransitionMissingStatusTreatedAsPending(t *testing.T) {
	c, db := newTestController(t)
	require.NoError(t, db.Create(&model.Project{
		ProjectID: "legacy", Name: "legacy",
		AccessLevel: model.AccessLevelIsolated, Status: model.StatusActive,
	}).Error)

	require.NoError(t, c.Transition(context.Background(), "legacy", model.PhaseShadow))
	assert.Equal(t, model.PhaseShadow, currentPhase(t, db, "legacy"))
}

func TestEnforcingRequiresEligibility(t *testing.T) {
	c, db := newTestController(t)
	// In shadow for one day only, no traffic yet.
	addProject(t, db, "alpha", model.PhaseShadow, time.Now().Add(-24*time.Hour))

	var notEligible *EligibilityError
	err := c.Transition(context.Background(), "alpha", model.PhaseEnforcing)
	require.ErrorAs(t, err, &notEligible)
	joined := notEligible.Error()
	assert.Contains(t, joined, "shadow duration")
	assert.Contains(t, joined, "observed transactions")
	assert.Equal(t, model.PhaseShadow, currentPhase(t, db, "alpha"))
}

func TestEnforcingBlockedByViolations(t *testing.T) {
	c, db := newTestController(t)
	addProject(t, db, "alpha", model.PhaseShadow, time.Now().Add(-8*24*time.Hour))
	addActivity(t, db, "alpha", 10, false)
	addActivity(t, db, "alpha", 1, true)

	var notEligible *EligibilityError
	err := c.Transition(context.Background(), "alpha", model.PhaseEnforcing)
	require.ErrorAs(t, err, &notEligible)
	assert.Contains(t, notEligible.Error(), "violations")
}

func TestEnforcingSucceedsWhenEligible(t *testing.T) {
	c, db := newTestController(t)
	addProject(t, db, "alpha", model.PhaseShadow, time.Now().Add(-8*24*time.Hour))
	addActivity(t, db, "alpha", 10, false)

	require.NoError(t, c.Transition(context.Background(), "alpha", model.PhaseEnforcing))
	assert.Equal(t, model.PhaseEnforcing, currentPhase(t, db, "alpha"))
}

func TestCompleteStampsMigratedAt(t *testing.T) {
	c, db := newTestController(t)
	addProject(t, db, "alpha", model.PhaseEnforcing, time.Now())

	require.NoError(t, c.Transition(context.Background(), "alpha", model.PhaseComplete))

	var status model.MigrationStatus
	require.NoError(t, db.Where("project_id = ?", "alpha").First(&status).Error)
	assert.Equal(t, model.PhaseComplete, status.Phase)
	require.NotNil(t, status.MigratedAt)
	assert.WithinDuration(t, time.Now(), *status.MigratedAt, time.Minute)
}

func TestBatchTransitionAllOrNothing(t *testing.T) {
	c, db := newTestController(t)
	addProject(t, db, "alpha", model.PhasePending, time.Now())
	addProject(t, db, "beta", model.PhasePending, time.Now())
	addProject(t, db, "gamma", model.PhaseEnforcing, time.Now())

	// gamma cannot go enforcing -> shadow, so nobody moves.
	err := c.TransitionBatch(context.Background(), []string{"alpha", "beta", "gamma"}, model.PhaseShadow)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.PhasePending, currentPhase(t, db, "alpha"))
	assert.Equal(t, model.PhasePending, currentPhase(t, db, "beta"))
	assert.Equal(t, model.PhaseEnforcing, currentPhase(t, db, "gamma"))

	require.NoError(t, c.TransitionBatch(context.Background(), []string{"alpha", "beta"}, model.PhaseShadow))
	assert.Equal(t, model.PhaseShadow, currentPhase(t, db, "alpha"))
	assert.Equal(t, model.PhaseShadow, currentPhase(t, db, "beta"))
}

func TestTransitionConflictOnConcurrentUpdate(t *testing.T) {
	// SkipDefaultTransaction keeps the conditional update out of an implicit
	// transaction so the competing write below is visible to it on sqlite.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Project{}, &model.ReadPermission{}, &model.MigrationStatus{}, &model.AuditLog{},
	))
	c := NewController(db, Config{MinShadowDays: 7, MinTransactions: 5}, nil)
	addProject(t, db, "alpha", model.PhasePending, time.Now())

	// A competing transition lands between the status read and the
	// conditional update, so the expected prior phase is stale.
	stolen := false
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("steal_transition", func(tx *gorm.DB) {
		if stolen {
			return
		}
		stolen = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Exec(
			"UPDATE migration_statuses SET phase = ? WHERE project_id = ?",
			model.PhaseShadow, "alpha").Error)
	}))
	t.Cleanup(func() { _ = db.Callback().Update().Remove("steal_transition") })

	var conflict *ConflictError
	err = c.transitionTx(context.Background(), db, "alpha", model.PhaseShadow)
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "alpha", conflict.ProjectID)
	assert.Equal(t, model.PhasePending, conflict.Expected)

	// The winner's phase stands.
	assert.Equal(t, model.PhaseShadow, currentPhase(t, db, "alpha"))
}

func TestRollbackFromAnyPhase(t *testing.T) {
	for _, phase := range []model.Phase{model.PhaseShadow, model.PhaseEnforcing, model.PhaseComplete} {
		t.Run(string(phase), func(t *testing.T) {
			c, db := newTestController(t)
			migrated := time.Now()
			require.NoError(t, db.Create(&model.Project{
				ProjectID: "alpha", Name: "alpha",
				AccessLevel: model.AccessLevelIsolated, Status: model.StatusActive,
			}).Error)
			require.NoError(t, db.Create(&model.MigrationStatus{
				ProjectID: "alpha", Phase: phase, Enabled: true,
				PhaseEnteredAt: time.Now(), MigratedAt: &migrated,
			}).Error)

			require.NoError(t, c.Rollback(context.Background(), "alpha"))

			var status model.MigrationStatus
			require.NoError(t, db.Where("project_id = ?", "alpha").First(&status).Error)
			assert.Equal(t, model.PhasePending, status.Phase)
			assert.Nil(t, status.MigratedAt)
		})
	}
}

func TestRollbackPendingIsNoOp(t *testing.T) {
	c, db := newTestController(t)
	addProject(t, db, "alpha", model.PhasePending, time.Now())

	require.NoError(t, c.Rollback(context.Background(), "alpha"))
	assert.Equal(t, model.PhasePending, currentPhase(t, db, "alpha"))
}

func TestCheckEligibilityReadOnly(t *testing.T) {
	c, db := newTestController(t)
	require.NoError(t, db.Create(&model.Project{
		ProjectID: "legacy", Name: "legacy",
		AccessLevel: model.AccessLevelIsolated, Status: model.StatusActive,
	}).Error)

	eligibility, err := c.CheckEligibility(context.Background(), "legacy")
	require.NoError(t, err)
	assert.False(t, eligibility.Eligible)

	// Inspection must not create a status row.
	var count int64
	require.NoError(t, db.Model(&model.MigrationStatus{}).
		Where("project_id = ?", "legacy").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestReportFleet(t *testing.T) {
	c, db := newTestController(t)
	addProject(t, db, "alpha", model.PhaseShadow, time.Now().Add(-8*24*time.Hour))
	addProject(t, db, "beta", model.PhasePending, time.Now())
	addActivity(t, db, "alpha", 10, false)

	summaries, err := c.Report(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "alpha", summaries[0].ProjectID)
	assert.True(t, summaries[0].Eligible)
	assert.EqualValues(t, 10, summaries[0].Transactions)
	assert.Equal(t, "beta", summaries[1].ProjectID)
	assert.Equal(t, model.PhasePending, summaries[1].Phase)
	assert.False(t, summaries[1].Eligible)
}
