package accesspolicy

import "github.com/warden-lab/warden/dao/model"

// Decision is the outcome of an access evaluation.
type Decision uint8

const (
	Deny Decision = iota
	Allow
)

func (d Decision) Allowed() bool { return d == Allow }

// Decide is the phase-aware decision for an actual operation. It is a pure
// function over the already-resolved scope: no I/O, cheap enough to call for
// every row of a batch, though callers normally only consult the scope's
// precomputed set directly when filtering.
//
//   - pending: always allow, enforcement is off.
//   - shadow: always allow; the hypothetical enforcing decision comes from
//     DecideEnforcing and is recorded by the shadow audit logger.
//   - enforcing/complete: DecideEnforcing.
func Decide(scope *CallerScope, rowOwner string, op model.Operation) Decision {
	if !scope.Phase.Enforces() {
		return Allow
	}
	return DecideEnforcing(scope, rowOwner, op)
}

// DecideEnforcing is the decision under full enforcement, regardless of the
// caller's current phase.
//
// Writes are allowed only for the caller's own rows, with no tier exception:
// a super project reads everything but never writes another project's rows.
func DecideEnforcing(scope *CallerScope, rowOwner string, op model.Operation) Decision {
	switch op {
	case model.OperationWrite:
		if rowOwner == scope.ProjectID && rowOwner != "" {
			return Allow
		}
		return Deny
	case model.OperationRead:
		if scope.CanRead(rowOwner) {
			return Allow
		}
		return Deny
	default:
		return Deny
	}
}
