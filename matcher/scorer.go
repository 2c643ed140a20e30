package matcher

import (
	"errors"
	"fmt"

	"imagematcher/types"
)

// ErrEmptyDescriptor marks a comparison skipped because one side had no keypoints
var ErrEmptyDescriptor = errors.New("descriptor set is empty")

// Scorer reduces brute-force correspondences between two descriptor sets to a
// single dissimilarity score. Lower is more similar.
type Scorer struct {
	matcher types.DescriptorMatcher
}

// NewScorer wraps a DescriptorMatcher
func NewScorer(m types.DescriptorMatcher) *Scorer {
	return &Scorer{matcher: m}
}

// Score returns the mean distance of the best correspondence of every query
// descriptor in the candidate set.
func (s *Scorer) Score(query, candidate types.Descriptor) (float64, error) {
	if query == nil || candidate == nil || query.Len() == 0 || candidate.Len() == 0 {
		return 0, ErrEmptyDescriptor
	}

	distances, err := s.matcher.PairwiseDistance(query, candidate)
	if err != nil {
		return 0, fmt.Errorf("pairwise distance: %w", err)
	}

	mean, ok := MeanDistance(distances)
	if !ok {
		return 0, ErrEmptyDescriptor
	}
	return mean, nil
}

// MeanDistance returns the arithmetic mean of distances; ok is false for an empty slice
func MeanDistance(distances []float64) (mean float64, ok bool) {
	if len(distances) == 0 {
		return 0, false
	}
	var sum float64
	for _, d := range distances {
		sum += d
	}
	return sum / float64(len(distances)), true
}
