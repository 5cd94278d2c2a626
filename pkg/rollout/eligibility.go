package rollout

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warden-lab/warden/dao/model"
)

// EligibilityMetrics are the raw measurements behind an eligibility verdict.
type EligibilityMetrics struct {
	ShadowDuration time.Duration `json:"shadowDuration"`
	Transactions   int64         `json:"transactions"`
	Violations     int64         `json:"violations"`
}

// Eligibility is the verdict for advancing a project from shadow to
// enforcing. Reasons name each unmet criterion with its threshold.
type Eligibility struct {
	ProjectID string             `json:"projectID"`
	Eligible  bool               `json:"eligible"`
	Reasons   []string           `json:"reasons,omitempty"`
	Metrics   EligibilityMetrics `json:"metrics"`
}

// CheckEligibility evaluates the shadow -> enforcing gate for one project.
// Read-only and side-effect free; used both by operators for inspection and
// by Transition for automated gating.
//
// All three criteria must pass at once: minimum time in shadow, minimum
// observed transaction volume (estimated from audit rows in the window), and
// zero would-be denials. Violations never auto-resolve; there is no waiver
// mechanism, the count must reach zero.
func (c *Controller) CheckEligibility(ctx context.Context, projectID string) (*Eligibility, error) {
	return c.checkEligibility(ctx, c.db, projectID)
}

func (c *Controller) checkEligibility(ctx context.Context, db *gorm.DB, projectID string) (*Eligibility, error) {
	status, err := readStatusTx(db.WithContext(ctx), projectID)
	if err != nil {
		return nil, err
	}

	result := &Eligibility{ProjectID: projectID}

	if status.Phase != model.PhaseShadow {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("project is in phase %s, eligibility applies to shadow", status.Phase))
	}

	windowStart := status.PhaseEnteredAt
	result.Metrics.ShadowDuration = time.Since(windowStart)

	window := func() *gorm.DB {
		return db.WithContext(ctx).Model(&model.AuditLog{}).
			Where("caller_project_id = ? AND logged_at >= ?", projectID, windowStart)
	}
	if err := window().Count(&result.Metrics.Transactions).Error; err != nil {
		return nil, fmt.Errorf("Controller.CheckEligibility: %w", err)
	}
	if err := window().Where("would_be_denied = ?", true).Count(&result.Metrics.Violations).Error; err != nil {
		return nil, fmt.Errorf("Controller.CheckEligibility: %w", err)
	}

	minDuration := time.Duration(c.cfg.MinShadowDays) * 24 * time.Hour
	if result.Metrics.ShadowDuration < minDuration {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("shadow duration %s (minimum: %dd)",
				formatDays(result.Metrics.ShadowDuration), c.cfg.MinShadowDays))
	}
	if result.Metrics.Transactions < c.cfg.MinTransactions {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("observed transactions %d (minimum: %d)",
				result.Metrics.Transactions, c.cfg.MinTransactions))
	}
	if result.Metrics.Violations > 0 {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("%d outstanding violations in shadow window", result.Metrics.Violations))
	}

	result.Eligible = len(result.Reasons) == 0
	return result, nil
}

func formatDays(d time.Duration) string {
	days := d.Hours() / 24
	if days < 1 {
		return d.Round(time.Minute).String()
	}
	return fmt.Sprintf("%.1fd", days)
}
