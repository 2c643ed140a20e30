package matcher

import (
	"time"

	"imagematcher/types"
)

// Status is the terminal state of a run
type Status int

const (
	// StatusCompleted means every candidate was processed and at least one matched
	StatusCompleted Status = iota
	// StatusNoSimilarCandidates means candidates were processed but none passed the threshold
	StatusNoSimilarCandidates
	// StatusEmptyCorpus means the corpus root held no candidate images
	StatusEmptyCorpus
	// StatusCancelledPartial means the run was cancelled; Results holds what was found before
	StatusCancelledPartial
	// StatusFailed means the run could not start, see Outcome.Err
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusNoSimilarCandidates:
		return "no_similar_candidates"
	case StatusEmptyCorpus:
		return "empty_corpus"
	case StatusCancelledPartial:
		return "cancelled_partial"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets Status render as its name in JSON
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the result of one run
type Outcome struct {
	Request   types.MatchRequest  `json:"request"`
	Status    Status              `json:"status"`
	Results   []types.MatchResult `json:"results"`
	Scanned   int                 `json:"scanned"`   // candidates found by the scanner
	Processed int                 `json:"processed"` // candidates whose processing began
	Abandoned int                 `json:"abandoned"` // candidates never started because of cancellation
	Failures  int                 `json:"failures"`  // candidates that failed to decode or extract
	Err       error               `json:"-"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
}

// Partial reports whether the results may be incomplete
func (o *Outcome) Partial() bool {
	return o.Status == StatusCancelledPartial
}
