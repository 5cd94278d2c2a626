package rollout

import (
	"fmt"
	"strings"

	"github.com/warden-lab/warden/dao/model"
)

// InvalidTransitionError rejects a phase edge outside
// pending -> shadow -> enforcing -> complete (plus rollback).
type InvalidTransitionError struct {
	ProjectID string
	From      model.Phase
	To        model.Phase
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for project %q: %s -> %s", e.ProjectID, e.From, e.To)
}

// EligibilityError reports unmet shadow -> enforcing gate criteria. It is an
// expected, recoverable outcome: the project simply stays in its current
// phase until the criteria pass.
type EligibilityError struct {
	ProjectID string
	Reasons   []string
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("project %q is not eligible for enforcing: %s",
		e.ProjectID, strings.Join(e.Reasons, "; "))
}

// ConflictError means a concurrent transition won the conditional update.
type ConflictError struct {
	ProjectID string
	Expected  model.Phase
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent phase transition detected for project %q (expected phase %s)",
		e.ProjectID, e.Expected)
}
