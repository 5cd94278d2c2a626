// Package rollout drives the per-project enforcement state machine:
// pending -> shadow -> enforcing -> complete, with an emergency rollback
// edge from any later phase back to pending.
package rollout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/pkg/accesspolicy"
	"github.com/warden-lab/warden/pkg/alert"
)

// Config holds the shadow -> enforcing gate thresholds.
type Config struct {
	MinShadowDays   int
	MinTransactions int64
}

// Controller owns MigrationStatus rows; all phase mutations go through it.
type Controller struct {
	db    *gorm.DB
	cfg   Config
	alert alert.AlertInterface // optional, nil disables notifications
}

func NewController(db *gorm.DB, cfg Config, alertMgr alert.AlertInterface) *Controller {
	return &Controller{db: db, cfg: cfg, alert: alertMgr}
}

// predecessor returns the required prior phase for a forward transition.
func predecessor(target model.Phase) (model.Phase, bool) {
	switch target {
	case model.PhaseShadow:
		return model.PhasePending, true
	case model.PhaseEnforcing:
		return model.PhaseShadow, true
	case model.PhaseComplete:
		return model.PhaseEnforcing, true
	default:
		return "", false
	}
}

// readStatusTx loads a project's status without mutating anything. A
// project with no status row reports as pending; the row itself is only
// created by ensureStatusTx when a transition needs one to update.
func readStatusTx(tx *gorm.DB, projectID string) (*model.MigrationStatus, error) {
	var project model.Project
	err := tx.Where("project_id = ?", projectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &accesspolicy.UnknownProjectError{ProjectID: projectID}
	}
	if err != nil {
		return nil, fmt.Errorf("rollout.readStatusTx: %w", err)
	}

	var status model.MigrationStatus
	err = tx.Where("project_id = ?", projectID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.MigrationStatus{
			ProjectID:      projectID,
			Phase:          model.PhasePending,
			Enabled:        true,
			PhaseEnteredAt: time.Now(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rollout.readStatusTx: %w", err)
	}
	return &status, nil
}

// ensureStatusTx is readStatusTx plus persistence of the pending row for
// projects onboarded before the rollout tables existed.
func ensureStatusTx(tx *gorm.DB, projectID string) (*model.MigrationStatus, error) {
	status, err := readStatusTx(tx, projectID)
	if err != nil {
		return nil, err
	}
	if status.ID == 0 {
		if err := tx.Create(status).Error; err != nil {
			return nil, fmt.Errorf("rollout.ensureStatusTx: %w", err)
		}
	}
	return status, nil
}

// Transition advances one project to target. Forward edges only; the
// shadow -> enforcing edge additionally requires the eligibility gate.
// A project already in target is a successful no-op.
func (c *Controller) Transition(ctx context.Context, projectID string, target model.Phase) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return c.transitionTx(ctx, tx, projectID, target)
	})
}

// TransitionBatch advances several projects atomically: one invalid member
// rejects the whole batch and no phase changes are applied.
func (c *Controller) TransitionBatch(ctx context.Context, projectIDs []string, target model.Phase) error {
	if len(projectIDs) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range projectIDs {
			if err := c.transitionTx(ctx, tx, id, target); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Controller) transitionTx(ctx context.Context, tx *gorm.DB, projectID string, target model.Phase) error {
	if !target.Valid() {
		return fmt.Errorf("rollout: invalid phase %q", target)
	}

	status, err := ensureStatusTx(tx, projectID)
	if err != nil {
		return err
	}
	if status.Phase == target {
		klog.V(2).Infof("project %s already in phase %s, nothing to do", projectID, target)
		return nil
	}

	expected, ok := predecessor(target)
	if !ok || status.Phase != expected {
		return &InvalidTransitionError{ProjectID: projectID, From: status.Phase, To: target}
	}

	if target == model.PhaseEnforcing {
		eligibility, err := c.checkEligibility(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if !eligibility.Eligible {
			return &EligibilityError{ProjectID: projectID, Reasons: eligibility.Reasons}
		}
	}

	updates := map[string]any{
		"phase":            target,
		"phase_entered_at": time.Now(),
	}
	if target == model.PhaseComplete {
		updates["migrated_at"] = time.Now()
	}

	// Conditional single-row update: two concurrent transitions cannot both
	// succeed out of the same prior phase.
	res := tx.Model(&model.MigrationStatus{}).
		Where("project_id = ? AND phase = ?", projectID, expected).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("Controller.transitionTx: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &ConflictError{ProjectID: projectID, Expected: expected}
	}

	klog.Infof("project %s transitioned %s -> %s", projectID, expected, target)
	return nil
}

// Rollback moves a project back to pending from any phase. It is the
// emergency path: unconditional, immediate, always permitted, and alerted.
func (c *Controller) Rollback(ctx context.Context, projectID string) error {
	status, err := readStatusTx(c.db.WithContext(ctx), projectID)
	if err != nil {
		return err
	}
	if status.ID == 0 || status.Phase == model.PhasePending {
		return nil
	}

	res := c.db.WithContext(ctx).Model(&model.MigrationStatus{}).
		Where("project_id = ?", projectID).
		Updates(map[string]any{
			"phase":            model.PhasePending,
			"phase_entered_at": time.Now(),
			"migrated_at":      nil,
		})
	if res.Error != nil {
		return fmt.Errorf("Controller.Rollback: %w", res.Error)
	}

	klog.Warningf("project %s rolled back from %s to pending", projectID, status.Phase)
	if c.alert != nil {
		if err := c.alert.RollbackAlert(ctx, projectID, status.Phase); err != nil {
			klog.Errorf("rollback alert for project %s failed: %v", projectID, err)
		}
	}
	return nil
}
