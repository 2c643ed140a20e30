package imageprocessor

import (
	"fmt"

	"gocv.io/x/gocv"

	"imagematcher/types"
)

// Descriptor holds the SIFT descriptors of one image, one row per keypoint
type Descriptor struct {
	mat       gocv.Mat
	keypoints int
}

// Len returns the number of descriptors
func (d *Descriptor) Len() int {
	if d == nil || d.mat.Empty() {
		return 0
	}
	return d.mat.Rows()
}

// Keypoints returns the number of keypoints found by the detector
func (d *Descriptor) Keypoints() int {
	return d.keypoints
}

// Close releases the underlying OpenCV memory
func (d *Descriptor) Close() error {
	if d == nil {
		return nil
	}
	return d.mat.Close()
}

// DetectAndDescribe runs SIFT over a normalized grayscale image. A new
// detector is created per call so concurrent callers share no state.
func DetectAndDescribe(img gocv.Mat) (*Descriptor, error) {
	if img.Empty() {
		return nil, fmt.Errorf("%w: empty image", types.ErrExtraction)
	}

	sift := gocv.NewSIFT()
	defer sift.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	kps, desc := sift.DetectAndCompute(img, mask)
	return &Descriptor{mat: desc, keypoints: len(kps)}, nil
}
