package imageprocessor

import (
	"fmt"
	"runtime/debug"

	"gocv.io/x/gocv"

	"imagematcher/logging"
	"imagematcher/types"
)

// Backend implements types.FeatureExtractor and types.DescriptorMatcher on
// OpenCV. It is safe for concurrent use.
type Backend struct {
	Width    int
	Height   int
	registry *ImageLoaderRegistry
}

// NewBackend creates a backend normalizing images to width x height; zero
// values select the canonical 400x300
func NewBackend(width, height int) *Backend {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Backend{Width: width, Height: height, registry: NewImageLoaderRegistry()}
}

// Extract decodes path, normalizes it and computes its SIFT descriptors.
// An image without keypoints yields a zero-length descriptor, not an error.
func (b *Backend) Extract(path string) (desc types.Descriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic during feature extraction: %v, file: %s\nStack trace: %s", r, path, string(debug.Stack()))
			desc = nil
			err = fmt.Errorf("%w: panic while processing %s: %v", types.ErrExtraction, path, r)
		}
	}()

	img, err := b.registry.LoadImage(path)
	if err != nil {
		img.Close()
		return nil, err
	}
	defer img.Close()

	d, err := b.describe(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.DebugLog("Extracted %d descriptors from %d keypoints in %s", d.Len(), d.Keypoints(), path)
	return d, nil
}

func (b *Backend) describe(img gocv.Mat) (*Descriptor, error) {
	normalized, err := Normalize(img, b.Width, b.Height)
	if err != nil {
		return nil, err
	}
	defer normalized.Close()

	return DetectAndDescribe(normalized)
}

// PairwiseDistance returns, for each query descriptor, the distance to its
// best correspondence in candidate
func (b *Backend) PairwiseDistance(query, candidate types.Descriptor) (dist []float64, err error) {
	q, ok := query.(*Descriptor)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported query descriptor %T", types.ErrExtraction, query)
	}
	c, ok := candidate.(*Descriptor)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported candidate descriptor %T", types.ErrExtraction, candidate)
	}

	defer func() {
		if r := recover(); r != nil {
			dist = nil
			err = fmt.Errorf("%w: panic during matching: %v", types.ErrExtraction, r)
		}
	}()
	return BestMatchDistances(q.mat, c.mat)
}
