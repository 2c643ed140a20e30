package imageprocessor

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// StandardImageLoader decodes images with OpenCV
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for the candidate image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatJPEG, FormatPNG, FormatBMP},
		},
	}
}

// LoadImage loads the file in grayscale
func (l *StandardImageLoader) LoadImage(path string) (gocv.Mat, error) {
	if err := checkReadable(path); err != nil {
		return gocv.NewMat(), err
	}
	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), newImageLoadError("OpenCV could not decode image", path, nil)
	}
	return img, nil
}

// GoImageLoader decodes images with the Go image packages. It backs up
// OpenCV builds that lack a codec.
type GoImageLoader struct {
	BaseImageLoader
}

// NewGoImageLoader creates a pure-Go loader
func NewGoImageLoader() *GoImageLoader {
	return &GoImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatJPEG, FormatPNG, FormatBMP},
		},
	}
}

// LoadImage decodes path and converts it to a grayscale Mat
func (l *GoImageLoader) LoadImage(path string) (gocv.Mat, error) {
	if err := checkReadable(path); err != nil {
		return gocv.NewMat(), err
	}
	img, err := tryGoImagePackages(path)
	if err != nil {
		return gocv.NewMat(), newImageLoadError("Go decoder failed", path, err)
	}
	mat, err := gocvMatFromGoImage(img)
	if err != nil {
		return gocv.NewMat(), newImageLoadError("cannot convert decoded image", path, err)
	}
	return mat, nil
}

// tryGoImagePackages loads an image using Go's registered decoders
func tryGoImagePackages(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// gocvMatFromGoImage converts any image.Image to an 8-bit grayscale Mat
func gocvMatFromGoImage(img image.Image) (gocv.Mat, error) {
	gray, ok := img.(*image.Gray)
	if !ok || gray.Bounds().Min != (image.Point{}) {
		b := img.Bounds()
		gray = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	}
	return gocv.ImageGrayToMatGray(gray)
}
