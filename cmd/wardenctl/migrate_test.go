package main

import (
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
	"github.com/warden-lab/warden/pkg/rollout"
)

func setupMigrateTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(
		&model.Project{}, &model.ReadPermission{}, &model.MigrationStatus{}, &model.AuditLog{},
	))
	db = testDB
	controller = rollout.NewController(testDB, rollout.Config{MinShadowDays: 7, MinTransactions: 5}, nil)
	return testDB
}

func seedStatus(t *testing.T, testDB *gorm.DB, projectID string, phase model.Phase) {
	t.Helper()
	require.NoError(t, testDB.Create(&model.Project{
		ProjectID: projectID, Name: projectID,
		AccessLevel: model.AccessLevelIsolated, Status: model.StatusActive,
	}).Error)
	migrated := time.Now()
	status := model.MigrationStatus{
		ProjectID: projectID, Phase: phase, Enabled: true, PhaseEnteredAt: time.Now(),
	}
	if phase == model.PhaseComplete {
		status.MigratedAt = &migrated
	}
	require.NoError(t, testDB.Create(&status).Error)
}

func phaseOf(t *testing.T, testDB *gorm.DB, projectID string) model.Phase {
	t.Helper()
	var status model.MigrationStatus
	require.NoError(t, testDB.Where("project_id = ?", projectID).First(&status).Error)
	return status.Phase
}

func TestMigrateForward(t *testing.T) {
	testDB := setupMigrateTest(t)
	seedStatus(t, testDB, "alpha", model.PhasePending)

	cmd := newMigrateCmd()
	cmd.SetArgs([]string{"alpha", "--phase", "shadow"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, model.PhaseShadow, phaseOf(t, testDB, "alpha"))
}

func TestMigratePendingIsTheRollbackEdge(t *testing.T) {
	testDB := setupMigrateTest(t)
	seedStatus(t, testDB, "alpha", model.PhaseEnforcing)

	// pending is reached through rollback, so it is always permitted
	// regardless of the current phase.
	cmd := newMigrateCmd()
	cmd.SetArgs([]string{"alpha", "--phase", "pending"})
	require.NoError(t, cmd.Execute())

	var status model.MigrationStatus
	require.NoError(t, testDB.Where("project_id = ?", "alpha").First(&status).Error)
	assert.Equal(t, model.PhasePending, status.Phase)
	assert.Nil(t, status.MigratedAt)
}

func TestMigrateBatchPending(t *testing.T) {
	testDB := setupMigrateTest(t)
	seedStatus(t, testDB, "alpha", model.PhaseShadow)
	seedStatus(t, testDB, "beta", model.PhaseComplete)

	cmd := newMigrateCmd()
	cmd.SetArgs([]string{"--batch", "alpha,beta", "--phase", "pending"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, model.PhasePending, phaseOf(t, testDB, "alpha"))
	assert.Equal(t, model.PhasePending, phaseOf(t, testDB, "beta"))
}

func TestMigrateRejectsSkipAhead(t *testing.T) {
	testDB := setupMigrateTest(t)
	seedStatus(t, testDB, "alpha", model.PhasePending)

	cmd := newMigrateCmd()
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{"alpha", "--phase", "complete"})
	require.Error(t, cmd.Execute())
	assert.Equal(t, model.PhasePending, phaseOf(t, testDB, "alpha"))
}
