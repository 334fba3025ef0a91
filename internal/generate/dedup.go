// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"sync"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

// Deduplicator owns the run's result set and the membership key set. All
// admission decisions are serialized through one mutex, so concurrent
// producers can call Admit freely; insertion order of first occurrence is
// preserved. One Deduplicator lives exactly as long as one run — it is
// owned by the Generator, never held as ambient process state.
type Deduplicator struct {
	mu      sync.Mutex
	enabled bool
	seen    map[string]bool
	results []types.TestCase
}

// NewDeduplicator returns a Deduplicator. When enabled is false every
// record is admitted unconditionally.
func NewDeduplicator(enabled bool) *Deduplicator {
	return &Deduplicator{
		enabled: enabled,
		seen:    make(map[string]bool),
	}
}

// Admit appends tc to the result set unless its dedup key was already seen.
// Returns true when the record was newly inserted, false when it was
// dropped as a duplicate. At most one admission decision is evaluated at a
// time.
func (d *Deduplicator) Admit(tc types.TestCase) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.enabled {
		key := tc.DedupKey()
		if d.seen[key] {
			return false
		}
		d.seen[key] = true
	}

	d.results = append(d.results, tc)
	return true
}

// Results returns a copy of the admitted test cases in insertion order.
func (d *Deduplicator) Results() []types.TestCase {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]types.TestCase, len(d.results))
	copy(out, d.results)
	return out
}

// Len returns the number of admitted test cases.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.results)
}
