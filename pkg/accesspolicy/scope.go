package accesspolicy

import (
	"sort"

	"github.com/warden-lab/warden/dao/model"
)

// CallerScope is the immutable per-request view of a caller: identity, tier,
// rollout phase and the precomputed set of owners it may read. It is built
// once per request by Resolver.ResolveScope and passed by value through the
// gate; it must not be cached across requests, since grants and access
// levels can change between them.
type CallerScope struct {
	ProjectID   string
	AccessLevel model.AccessLevel
	Phase       model.Phase

	readsAll bool
	allowed  map[string]struct{}
}

// CanRead reports whether rows owned by owner are readable under enforcing
// rules. The empty owner is never readable.
func (s *CallerScope) CanRead(owner string) bool {
	if owner == "" {
		return false
	}
	if s.readsAll {
		return true
	}
	_, ok := s.allowed[owner]
	return ok
}

// ReadsAll reports whether the caller is super tier.
func (s *CallerScope) ReadsAll() bool { return s.readsAll }

// AllowedProjects returns the materialized, sorted allowed-owner set. For a
// super caller this is every registered project at resolve time.
func (s *CallerScope) AllowedProjects() []string {
	ids := make([]string, 0, len(s.allowed))
	for id := range s.allowed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
