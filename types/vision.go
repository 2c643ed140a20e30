package types

import "errors"

var (
	// ErrDecode reports an image that could not be read or decoded
	ErrDecode = errors.New("image decode failed")

	// ErrExtraction reports a decoded image the feature detector could not describe
	ErrExtraction = errors.New("feature extraction failed")
)

// Descriptor is the opaque set of keypoint descriptors of one image.
// It is owned by whoever called Extract and must be closed once scoring is done.
type Descriptor interface {
	// Len returns the number of keypoint descriptors
	Len() int
	Close() error
}

// FeatureExtractor turns an image file into a Descriptor. Implementations normalize
// every image to the same canonical size before detection and keep no state between calls.
type FeatureExtractor interface {
	Extract(path string) (Descriptor, error)
}

// DescriptorMatcher returns one raw distance per best correspondence of each
// query descriptor in the candidate set.
type DescriptorMatcher interface {
	PairwiseDistance(query, candidate Descriptor) ([]float64, error)
}
