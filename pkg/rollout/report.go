package rollout

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/pkg/metrics"
)

const maxReportWorkers = 10

// ProjectSummary is one row of the fleet dashboard.
type ProjectSummary struct {
	ProjectID      string      `json:"projectID"`
	Phase          model.Phase `json:"phase"`
	PhaseEnteredAt time.Time   `json:"phaseEnteredAt"`
	MigratedAt     *time.Time  `json:"migratedAt,omitempty"`
	Transactions   int64       `json:"transactions"`
	Violations     int64       `json:"violations"`
	Eligible       bool        `json:"eligible"`
	Reasons        []string    `json:"reasons,omitempty"`
}

// Report aggregates phase, window metrics and eligibility for the given
// projects, or for the whole fleet when none are named. It also refreshes
// the per-project phase gauge.
func (c *Controller) Report(ctx context.Context, projectIDs ...string) ([]ProjectSummary, error) {
	if len(projectIDs) == 0 {
		err := c.db.WithContext(ctx).Model(&model.Project{}).
			Order("project_id").Pluck("project_id", &projectIDs).Error
		if err != nil {
			return nil, fmt.Errorf("Controller.Report: %w", err)
		}
	}

	summaries := make([]ProjectSummary, len(projectIDs))
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxReportWorkers)

	for i, id := range projectIDs {
		g.Go(func() error {
			status, err := readStatusTx(c.db.WithContext(groupCtx), id)
			if err != nil {
				return err
			}
			eligibility, err := c.checkEligibility(groupCtx, c.db, id)
			if err != nil {
				return err
			}
			summaries[i] = ProjectSummary{
				ProjectID:      id,
				Phase:          status.Phase,
				PhaseEnteredAt: status.PhaseEnteredAt,
				MigratedAt:     status.MigratedAt,
				Transactions:   eligibility.Metrics.Transactions,
				Violations:     eligibility.Metrics.Violations,
				Eligible:       eligibility.Eligible,
				Reasons:        eligibility.Reasons,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range summaries {
		for _, phase := range []model.Phase{model.PhasePending, model.PhaseShadow, model.PhaseEnforcing, model.PhaseComplete} {
			value := 0.0
			if s.Phase == phase {
				value = 1.0
			}
			metrics.ProjectPhase.WithLabelValues(s.ProjectID, string(phase)).Set(value)
		}
	}
	return summaries, nil
}
