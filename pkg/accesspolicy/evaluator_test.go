package accesspolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warden-lab/warden/dao/model"
)

func testScope(projectID string, level model.AccessLevel, phase model.Phase, grants ...string) *CallerScope {
	allowed := map[string]struct{}{projectID: {}}
	for _, id := range grants {
		allowed[id] = struct{}{}
	}
	return &CallerScope{
		ProjectID:   projectID,
		AccessLevel: level,
		Phase:       phase,
		readsAll:    level == model.AccessLevelSuper,
		allowed:     allowed,
	}
}

func TestDecideEnforcingWrites(t *testing.T) {
	isolated := testScope("io", model.AccessLevelIsolated, model.PhaseEnforcing)
	super := testScope("aa", model.AccessLevelSuper, model.PhaseEnforcing)

	assert.Equal(t, Allow, DecideEnforcing(isolated, "io", model.OperationWrite))
	assert.Equal(t, Deny, DecideEnforcing(isolated, "sm", model.OperationWrite))

	// Super tier reads everything but never writes another project's rows.
	assert.Equal(t, Allow, DecideEnforcing(super, "aa", model.OperationWrite))
	assert.Equal(t, Deny, DecideEnforcing(super, "io", model.OperationWrite))

	// Ownerless rows are never writable.
	assert.Equal(t, Deny, DecideEnforcing(isolated, "", model.OperationWrite))
	assert.Equal(t, Deny, DecideEnforcing(super, "", model.OperationWrite))
}

func TestDecideEnforcingReads(t *testing.T) {
	isolated := testScope("io", model.AccessLevelIsolated, model.PhaseEnforcing)
	shared := testScope("sm", model.AccessLevelShared, model.PhaseEnforcing, "io")
	super := testScope("aa", model.AccessLevelSuper, model.PhaseEnforcing)

	assert.Equal(t, Allow, DecideEnforcing(isolated, "io", model.OperationRead))
	assert.Equal(t, Deny, DecideEnforcing(isolated, "sm", model.OperationRead))

	assert.Equal(t, Allow, DecideEnforcing(shared, "sm", model.OperationRead))
	assert.Equal(t, Allow, DecideEnforcing(shared, "io", model.OperationRead))
	assert.Equal(t, Deny, DecideEnforcing(shared, "motoko", model.OperationRead))

	assert.Equal(t, Allow, DecideEnforcing(super, "motoko", model.OperationRead))

	assert.Equal(t, Deny, DecideEnforcing(super, "", model.OperationRead))
}

func TestDecidePhaseAware(t *testing.T) {
	for _, phase := range []model.Phase{model.PhasePending, model.PhaseShadow} {
		scope := testScope("io", model.AccessLevelIsolated, phase)
		assert.Equal(t, Allow, Decide(scope, "sm", model.OperationRead), "phase %s", phase)
		assert.Equal(t, Allow, Decide(scope, "sm", model.OperationWrite), "phase %s", phase)
	}

	for _, phase := range []model.Phase{model.PhaseEnforcing, model.PhaseComplete} {
		scope := testScope("io", model.AccessLevelIsolated, phase)
		assert.Equal(t, Deny, Decide(scope, "sm", model.OperationRead), "phase %s", phase)
		assert.Equal(t, Deny, Decide(scope, "sm", model.OperationWrite), "phase %s", phase)
		assert.Equal(t, Allow, Decide(scope, "io", model.OperationWrite), "phase %s", phase)
	}
}

func TestDecideUnknownOperation(t *testing.T) {
	scope := testScope("io", model.AccessLevelIsolated, model.PhaseEnforcing)
	assert.Equal(t, Deny, DecideEnforcing(scope, "io", model.Operation("delete")))
}

func TestScopeAllowedProjects(t *testing.T) {
	shared := testScope("sm", model.AccessLevelShared, model.PhaseShadow, "io", "aa")
	assert.Equal(t, []string{"aa", "io", "sm"}, shared.AllowedProjects())
	assert.False(t, shared.ReadsAll())

	super := testScope("aa", model.AccessLevelSuper, model.PhaseShadow)
	assert.True(t, super.ReadsAll())
	assert.True(t, super.CanRead("anything"))
	assert.False(t, super.CanRead(""))
}
