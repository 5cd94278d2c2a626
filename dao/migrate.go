package dao

import (
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/warden-lab/warden/dao/model"
)

// Migrate applies the schema migrations. Audit logs deliberately have no
// update or delete path; the table is created append-only with a time index.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250301-core-tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.Project{},
					&model.ReadPermission{},
					&model.MigrationStatus{},
					&model.Operator{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&model.Project{}, &model.ReadPermission{},
					&model.MigrationStatus{}, &model.Operator{},
				)
			},
		},
		{
			ID: "20250301-audit-log",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.AuditLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&model.AuditLog{})
			},
		},
		{
			ID: "20250315-guarded-collections",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.Insight{}, &model.Memory{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&model.Insight{}, &model.Memory{})
			},
		},
		{
			ID: "20250402-sweep-records",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.SweepRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&model.SweepRecord{})
			},
		},
	})

	if err := m.Migrate(); err != nil {
		err = fmt.Errorf("dao.Migrate: %w", err)
		klog.Error(err)
		return err
	}
	klog.Info("database migration finished")
	return nil
}

// EnsureStatusRows backfills a pending MigrationStatus for any project that
// is missing one, so the one-row-per-project invariant holds after onboarding
// projects created before the rollout tables existed.
func EnsureStatusRows(db *gorm.DB) error {
	var ids []string
	if err := db.Model(&model.Project{}).Pluck("project_id", &ids).Error; err != nil {
		return fmt.Errorf("dao.EnsureStatusRows: %w", err)
	}
	for _, id := range ids {
		var count int64
		if err := db.Model(&model.MigrationStatus{}).Where("project_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("dao.EnsureStatusRows: %w", err)
		}
		if count > 0 {
			continue
		}
		status := model.MigrationStatus{
			ProjectID:      id,
			Phase:          model.PhasePending,
			Enabled:        true,
			PhaseEnteredAt: time.Now(),
		}
		if err := db.Create(&status).Error; err != nil {
			return fmt.Errorf("dao.EnsureStatusRows: %w", err)
		}
		klog.Infof("created pending migration status for project %s", id)
	}
	return nil
}
