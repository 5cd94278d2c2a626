// Package enforcement is the per-operation interception point for guarded
// collections. Every read passes its result set through the gate, every
// write asks the gate before the mutation reaches storage.
package enforcement

import (
	"time"

	"gorm.io/datatypes"
	"k8s.io/klog/v2"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/pkg/accesspolicy"
	"github.com/warden-lab/warden/pkg/metrics"
	"github.com/warden-lab/warden/pkg/shadow"
)

// Owned is a row of a guarded collection.
type Owned interface {
	OwnerProjectID() string
}

// Gate applies the caller's precomputed scope to reads and writes and feeds
// the shadow audit logger. The scope is resolved once per request by the
// handler; the gate itself performs no I/O on the decision path.
type Gate struct {
	shadow *shadow.Logger
}

func NewGate(shadowLogger *shadow.Logger) *Gate {
	return &Gate{shadow: shadowLogger}
}

// FilterRead returns the rows the caller may see. Rows without an owner are
// excluded in every phase; cross-project rows are excluded only when the
// phase enforces. In shadow phase the full set is returned, and would-be
// exclusions are recorded without blocking.
func FilterRead[T Owned](g *Gate, scope *accesspolicy.CallerScope, collection string, rows []T, actingIdentity string) []T {
	filtered := make([]T, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		owner := row.OwnerProjectID()
		if owner == "" {
			// Restrictive rule: ownerless rows are never visible.
			dropped++
			continue
		}
		if scope.Phase.Enforces() && !scope.CanRead(owner) {
			dropped++
			continue
		}
		filtered = append(filtered, row)
	}
	if dropped > 0 {
		metrics.FilteredReadRows.WithLabelValues(collection).Add(float64(dropped))
	}

	if scope.Phase == model.PhaseShadow {
		g.shadow.RecordOperation(scope, collection, model.OperationRead, actingIdentity)
		g.shadow.RecordIfViolating(scope, collection, model.OperationRead, owners(rows), actingIdentity)
	}
	return filtered
}

// CheckWrite decides whether a single-row mutation may proceed. A non-nil
// error is a hard failure and the mutation must not reach storage.
func (g *Gate) CheckWrite(
	scope *accesspolicy.CallerScope,
	collection string,
	rowOwner string,
	actingIdentity string,
	beforeState, afterState datatypes.JSON,
) error {
	if rowOwner == "" {
		// Restrictive rule, never relaxed: writes without an owner are
		// rejected even in pending phase.
		g.appendDenied(scope, collection, "", actingIdentity, beforeState, afterState)
		metrics.DeniedWrites.WithLabelValues(collection, "missing_owner").Inc()
		return &accesspolicy.MissingOwnerError{Collection: collection}
	}

	if scope.Phase == model.PhaseShadow {
		g.shadow.RecordOperation(scope, collection, model.OperationWrite, actingIdentity)
		g.shadow.RecordIfViolating(scope, collection, model.OperationWrite, []string{rowOwner}, actingIdentity)
		return nil
	}

	if !scope.Phase.Enforces() {
		return nil
	}

	if !accesspolicy.DecideEnforcing(scope, rowOwner, model.OperationWrite).Allowed() {
		g.appendDenied(scope, collection, rowOwner, actingIdentity, beforeState, afterState)
		metrics.DeniedWrites.WithLabelValues(collection, "cross_project").Inc()
		klog.V(2).Infof("denied write: caller=%s owner=%s collection=%s", scope.ProjectID, rowOwner, collection)
		return &accesspolicy.CrossProjectWriteError{
			CallerProjectID: scope.ProjectID,
			OwnerProjectID:  rowOwner,
			Collection:      collection,
		}
	}
	return nil
}

// appendDenied records the gate's hard-deny path in the audit log.
func (g *Gate) appendDenied(
	scope *accesspolicy.CallerScope,
	collection, rowOwner, actingIdentity string,
	beforeState, afterState datatypes.JSON,
) {
	g.shadow.Append([]model.AuditLog{{
		LoggedAt:          time.Now(),
		CallerProjectID:   scope.ProjectID,
		CollectionName:    collection,
		Operation:         model.OperationWrite,
		RowOwnerProjectID: rowOwner,
		WouldBeDenied:     true,
		BeforeState:       beforeState,
		AfterState:        afterState,
		ActingIdentity:    actingIdentity,
	}})
}

func owners[T Owned](rows []T) []string {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.OwnerProjectID()
	}
	return ids
}
