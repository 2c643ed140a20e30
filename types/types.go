package types

import (
	"fmt"
	"math"
	"time"
)

// CandidateFile is an image file discovered under the corpus root
type CandidateFile struct {
	Path    string `json:"path"` // absolute, cleaned
	Format  string `json:"format"`
	IsImage bool   `json:"is_image"`
	Size    int64  `json:"size"`
}

// MatchRequest holds the query of one matching run
type MatchRequest struct {
	QueryPath  string  `json:"query_path"`
	CorpusRoot string  `json:"corpus_root"`
	Threshold  float64 `json:"threshold"`
}

// Validate checks the request fields that do not require touching the filesystem
func (r MatchRequest) Validate() error {
	if r.QueryPath == "" {
		return fmt.Errorf("query image path is required")
	}
	if r.CorpusRoot == "" {
		return fmt.Errorf("corpus root is required")
	}
	if math.IsNaN(r.Threshold) || r.Threshold < 0 || r.Threshold > 100 {
		return fmt.Errorf("threshold %.2f out of range [0, 100]", r.Threshold)
	}
	return nil
}

// ThumbnailRef points at the image a preview should be rendered from.
// The core never loads pixels for it.
type ThumbnailRef struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MatchResult is one candidate that passed the threshold
type MatchResult struct {
	Path      string       `json:"path"`
	Score     float64      `json:"score"`
	Thumbnail ThumbnailRef `json:"thumbnail"`
}

// RunRecord is a finished run as stored in the history database
type RunRecord struct {
	ID         int64         `json:"id"`
	QueryPath  string        `json:"query_path"`
	CorpusRoot string        `json:"corpus_root"`
	Threshold  float64       `json:"threshold"`
	Status     string        `json:"status"`
	Scanned    int           `json:"scanned"`
	Matched    int           `json:"matched"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Matches    []MatchResult `json:"matches,omitempty"`
}
