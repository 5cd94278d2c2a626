// Package shadow records operations that would have been denied under
// enforcing rules, without denying them. The write path is asynchronous and
// best-effort: a full queue or a failed insert never surfaces to the guarded
// request.
package shadow

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/pkg/accesspolicy"
	"github.com/warden-lab/warden/pkg/metrics"
)

const (
	defaultQueueSize   = 256
	insertBatchSize    = 100
	insertTimeoutLimit = 5 * time.Second
)

// Logger is the shadow audit logger. Entries are handed to a background
// worker over a buffered channel; Append never blocks the caller.
type Logger struct {
	db *gorm.DB
	ch chan []model.AuditLog

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewLogger(db *gorm.DB) *Logger {
	return &Logger{
		db: db,
		ch: make(chan []model.AuditLog, defaultQueueSize),
	}
}

// Start launches the background writer. Cancelling ctx abandons queued
// batches; audit completeness is not a hard guarantee on shutdown.
func (l *Logger) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		l.wg.Add(1)
		go l.run(ctx)
	})
}

// Stop closes the queue and waits for the worker to drain it.
func (l *Logger) Stop() {
	l.stopOnce.Do(func() {
		close(l.ch)
		l.wg.Wait()
	})
}

func (l *Logger) run(ctx context.Context) {
	defer l.wg.Done()
	for {
		select {
		case batch, ok := <-l.ch:
			if !ok {
				return
			}
			l.write(batch)
		case <-ctx.Done():
			return
		}
	}
}

func (l *Logger) write(batch []model.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeoutLimit)
	defer cancel()
	if err := l.db.WithContext(ctx).CreateInBatches(batch, insertBatchSize).Error; err != nil {
		// Never propagate: losing telemetry is preferable to failing the
		// guarded operation that triggered it.
		klog.Errorf("shadow.Logger: failed to write %d audit entries: %v", len(batch), err)
		metrics.AuditDropped.Add(float64(len(batch)))
	}
}

// Append enqueues entries regardless of phase. Used by the enforcement
// gate's hard-deny path as well as internally.
func (l *Logger) Append(entries []model.AuditLog) {
	if len(entries) == 0 {
		return
	}
	select {
	case l.ch <- entries:
	default:
		klog.Warningf("shadow.Logger: queue full, dropping %d audit entries", len(entries))
		metrics.AuditDropped.Add(float64(len(entries)))
	}
}

// RecordOperation appends one would_be_denied=false entry for a guarded
// operation in shadow phase. These activity rows are what the eligibility
// gate counts as transaction volume for the shadow window.
func (l *Logger) RecordOperation(
	scope *accesspolicy.CallerScope,
	collection string,
	op model.Operation,
	actingIdentity string,
) {
	if scope.Phase != model.PhaseShadow {
		return
	}
	l.Append([]model.AuditLog{{
		LoggedAt:          time.Now(),
		CallerProjectID:   scope.ProjectID,
		CollectionName:    collection,
		Operation:         op,
		RowOwnerProjectID: scope.ProjectID,
		WouldBeDenied:     false,
		ActingIdentity:    actingIdentity,
	}})
}

// RecordIfViolating scans the owners touched by an operation and records one
// audit entry per row that enforcing rules would deny. It checks the phase
// first so non-shadow projects pay nothing, and it allocates only when a
// violation is actually present.
func (l *Logger) RecordIfViolating(
	scope *accesspolicy.CallerScope,
	collection string,
	op model.Operation,
	owners []string,
	actingIdentity string,
) {
	if scope.Phase != model.PhaseShadow {
		return
	}

	var entries []model.AuditLog
	now := time.Now()
	for _, owner := range owners {
		if owner == "" {
			// The restrictive no-owner rule is enforced in every phase and
			// audited by the gate itself.
			continue
		}
		if accesspolicy.DecideEnforcing(scope, owner, op).Allowed() {
			continue
		}
		entries = append(entries, model.AuditLog{
			LoggedAt:          now,
			CallerProjectID:   scope.ProjectID,
			CollectionName:    collection,
			Operation:         op,
			RowOwnerProjectID: owner,
			WouldBeDenied:     true,
			ActingIdentity:    actingIdentity,
		})
		metrics.ShadowViolations.WithLabelValues(collection, string(op)).Inc()
	}
	l.Append(entries)
}
