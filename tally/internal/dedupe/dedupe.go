// Package dedupe decides whether a candidate line is a genuine new event or
// a re-render echo of the host's virtualized list.
//
// Virtualized lists re-mount identical blocks of prior rows verbatim (same
// text, same neighbour) as the user scrolls; genuine repeats of the same
// outcome recur in a different relative position in the log (different
// neighbour). Combining the content signature with an adjacency key
// distinguishes the two without relying on DOM node identity, which the
// host destroys on every re-render.
package dedupe

import "github.com/tabletally/tabletally/tally/internal/signature"

// Filter is the at-most-once gate in front of the parser. Admission and
// marking are a single step, so an admitted line can never be admitted
// again under the same neighbour. Not safe for concurrent use; the
// pipeline feeds it from one goroutine.
type Filter struct {
	seen  map[string]struct{}
	pairs map[string]struct{}
}

// New creates an empty Filter.
func New() *Filter {
	return &Filter{
		seen:  make(map[string]struct{}),
		pairs: make(map[string]struct{}),
	}
}

// Admit reports whether the candidate with signature sig, preceded by the
// candidate with signature prevSig (empty when no preceding candidate
// exists), is a new occurrence. On admission both the signature and, when
// present, the adjacency key are marked before returning.
//
// Decision table:
//   - sig never seen            → admit (first sight, regardless of context)
//   - repeat without a prevSig  → suppress (a solitary repeat with no anchor
//     is almost certainly virtualization)
//   - repeat, new adjacency     → admit (same text next to a different
//     neighbour: a legitimately repeated outcome)
//   - repeat, known adjacency   → suppress
func (f *Filter) Admit(sig, prevSig string) bool {
	if _, known := f.seen[sig]; known {
		if prevSig == "" {
			return false
		}
		if _, dup := f.pairs[signature.AdjacencyKey(prevSig, sig)]; dup {
			return false
		}
	}

	f.seen[sig] = struct{}{}
	if prevSig != "" {
		f.pairs[signature.AdjacencyKey(prevSig, sig)] = struct{}{}
	}
	return true
}

// Reset clears all memory. The next occurrence of any line is first sight.
func (f *Filter) Reset() {
	f.seen = make(map[string]struct{})
	f.pairs = make(map[string]struct{})
}

// Size returns the current number of remembered signatures and adjacency
// keys, for diagnostics. Memory grows unboundedly for the session; that is
// the intended durability boundary.
func (f *Filter) Size() (signatures, adjacencies int) {
	return len(f.seen), len(f.pairs)
}
