package imageprocessor

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"imagematcher/types"
)

// Canonical size every image is resized to before feature detection
const (
	DefaultWidth  = 400
	DefaultHeight = 300
)

// Normalize resizes a decoded grayscale image to width x height. The input
// Mat is left untouched; the caller owns the returned Mat.
func Normalize(img gocv.Mat, width, height int) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: empty image", types.ErrDecode)
	}

	resized := gocv.NewMat()
	if img.Cols() == width && img.Rows() == height {
		img.CopyTo(&resized)
		return resized, nil
	}

	interp := gocv.InterpolationArea
	if img.Cols() < width || img.Rows() < height {
		interp = gocv.InterpolationLinear
	}
	gocv.Resize(img, &resized, image.Point{X: width, Y: height}, 0, 0, interp)
	if resized.Empty() {
		resized.Close()
		return gocv.NewMat(), fmt.Errorf("%w: resize to %dx%d failed", types.ErrExtraction, width, height)
	}
	return resized, nil
}
