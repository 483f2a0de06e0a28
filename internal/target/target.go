// Package target holds the tracked (owner, repo, branch) triples.
package target

import (
	"fmt"
	"sync/atomic"
)

// Target identifies one tracked branch. The triple is its identity.
type Target struct {
	Owner  string
	Repo   string
	Branch string
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s@%s", t.Owner, t.Repo, t.Branch)
}

// Registry holds an immutable snapshot of the tracked targets.
// Replace swaps the whole snapshot; it never mutates one in place, so a
// collection cycle always sees the list it started with.
type Registry struct {
	targets atomic.Pointer[[]Target]
}

// NewRegistry returns a Registry holding a private copy of targets.
func NewRegistry(targets []Target) *Registry {
	r := &Registry{}
	r.Replace(targets)
	return r
}

// Targets returns a copy of the current snapshot.
func (r *Registry) Targets() []Target {
	cur := *r.targets.Load()
	out := make([]Target, len(cur))
	copy(out, cur)
	return out
}

// Len returns the number of targets in the current snapshot.
func (r *Registry) Len() int {
	return len(*r.targets.Load())
}

// Replace installs a new snapshot. Entries already collected for targets that
// are no longer listed are left alone by the store.
func (r *Registry) Replace(targets []Target) {
	snap := make([]Target, len(targets))
	copy(snap, targets)
	r.targets.Store(&snap)
}
