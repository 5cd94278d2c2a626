package model

// AccessLevel is the tenancy tier of a project.
type AccessLevel string

const (
	AccessLevelIsolated AccessLevel = "isolated" // own data only
	AccessLevelShared   AccessLevel = "shared"   // own data plus explicit read grants
	AccessLevelSuper    AccessLevel = "super"    // reads every project, still writes only its own
)

func (l AccessLevel) Valid() bool {
	switch l {
	case AccessLevelIsolated, AccessLevelShared, AccessLevelSuper:
		return true
	}
	return false
}

// Phase is the enforcement rollout stage of a project.
type Phase string

const (
	PhasePending   Phase = "pending"   // enforcement off, legacy behavior
	PhaseShadow    Phase = "shadow"    // observe only, would-be denials are audited
	PhaseEnforcing Phase = "enforcing" // enforcement active
	PhaseComplete  Phase = "complete"  // enforcement finalized, migrated_at stamped
)

func (p Phase) Valid() bool {
	switch p {
	case PhasePending, PhaseShadow, PhaseEnforcing, PhaseComplete:
		return true
	}
	return false
}

// Enforces reports whether the phase requires read filtering and write rejection.
func (p Phase) Enforces() bool {
	return p == PhaseEnforcing || p == PhaseComplete
}

// Operation is the kind of data access being decided.
type Operation string

const (
	OperationRead  Operation = "read"
	OperationWrite Operation = "write"
)

// Operator role on the platform
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// Project status
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)
