package matcher

import (
	"sort"
	"sync"

	"imagematcher/types"
)

// Aggregator collects match results pushed concurrently by workers
type Aggregator struct {
	mu      sync.Mutex
	results []types.MatchResult
	seen    map[string]struct{}
	drained bool
}

// NewAggregator returns an empty Aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Push appends a result. It returns false when the path was already pushed
// or the aggregator has been drained.
func (a *Aggregator) Push(r types.MatchResult) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.drained {
		return false
	}
	if _, dup := a.seen[r.Path]; dup {
		return false
	}
	a.seen[r.Path] = struct{}{}
	a.results = append(a.results, r)
	return true
}

// Len returns the number of results pushed so far
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

// Drain returns all results ordered by ascending score, ties by path, and
// empties the aggregator. Later pushes are rejected.
func (a *Aggregator) Drain() []types.MatchResult {
	a.mu.Lock()
	out := a.results
	a.results = nil
	a.drained = true
	a.mu.Unlock()

	if out == nil {
		return []types.MatchResult{}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Path < out[j].Path
	})
	return out
}
