package accesspolicy

import "fmt"

// UnknownProjectError is returned when a caller names a project that is not
// in the registry. It is a configuration error and is always surfaced; the
// evaluator never falls back to super or allow for an unknown caller.
type UnknownProjectError struct {
	ProjectID string
}

func (e *UnknownProjectError) Error() string {
	if e.ProjectID == "" {
		return "project id is empty"
	}
	return fmt.Sprintf("unknown project %q", e.ProjectID)
}

// CrossProjectWriteError is a policy denial: a write whose row owner is not
// the caller, rejected in enforcing or complete phase. Callers treat it as
// normal control flow, distinct from infrastructure failures.
type CrossProjectWriteError struct {
	CallerProjectID string
	OwnerProjectID  string
	Collection      string
}

func (e *CrossProjectWriteError) Error() string {
	return fmt.Sprintf("cross-project write denied: project %q may not write %s row owned by %q",
		e.CallerProjectID, e.Collection, e.OwnerProjectID)
}

// MissingOwnerError is the restrictive rule: rows without an owner are
// rejected for write and excluded from read in every phase, pending included.
type MissingOwnerError struct {
	Collection string
}

func (e *MissingOwnerError) Error() string {
	return fmt.Sprintf("row in collection %q has no owner project", e.Collection)
}
