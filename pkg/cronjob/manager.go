// Package cronjob runs the periodic eligibility sweep: it refreshes the
// fleet report, alerts on new shadow violations and newly eligible
// projects, and persists one SweepRecord per run.
package cronjob

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/pkg/alert"
	"github.com/warden-lab/warden/pkg/rollout"
)

const sweepTimeout = 2 * time.Minute

type SweepManager struct {
	db         *gorm.DB
	controller *rollout.Controller
	alert      alert.AlertInterface
	cron       *cron.Cron

	mu       sync.Mutex
	lastSeen map[string]sweepState
}

type sweepState struct {
	violations int64
	eligible   bool
}

func NewSweepManager(db *gorm.DB, controller *rollout.Controller, alertMgr alert.AlertInterface) *SweepManager {
	return &SweepManager{
		db:         db,
		controller: controller,
		alert:      alertMgr,
		cron:       cron.New(cron.WithLocation(time.Local)),
		lastSeen:   make(map[string]sweepState),
	}
}

// Start schedules the sweep with the given cron spec and launches the
// scheduler goroutine.
func (m *SweepManager) Start(spec string) error {
	if _, err := m.cron.AddFunc(spec, m.RunSweep); err != nil {
		return err
	}
	m.cron.Start()
	klog.Infof("eligibility sweep scheduled with spec %q", spec)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (m *SweepManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// RunSweep executes one sweep. Exported so wardenctl and tests can trigger
// it outside the schedule.
func (m *SweepManager) RunSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	summaries, err := m.controller.Report(ctx)
	if err != nil {
		klog.Errorf("eligibility sweep failed: %v", err)
		m.record(ctx, model.SweepRecordStatusFailed, err.Error(), nil)
		return
	}

	m.notify(ctx, summaries)
	m.record(ctx, model.SweepRecordStatusSuccess, "", summaries)
}

// notify raises alerts on edges only: a violation count increase or a flip
// to eligible. Repeating the same state every sweep would drown operators.
func (m *SweepManager) notify(ctx context.Context, summaries []rollout.ProjectSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range summaries {
		prev := m.lastSeen[s.ProjectID]
		if m.alert != nil && s.Phase == model.PhaseShadow {
			if s.Violations > prev.violations {
				if err := m.alert.ViolationAlert(ctx, s.ProjectID, s.Violations); err != nil {
					klog.Errorf("violation alert for project %s failed: %v", s.ProjectID, err)
				}
			}
			if s.Eligible && !prev.eligible {
				if err := m.alert.EligibleAlert(ctx, s.ProjectID); err != nil {
					klog.Errorf("eligible alert for project %s failed: %v", s.ProjectID, err)
				}
			}
		}
		m.lastSeen[s.ProjectID] = sweepState{violations: s.Violations, eligible: s.Eligible}
	}
}
