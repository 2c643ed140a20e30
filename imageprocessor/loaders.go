package imageprocessor

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"

	"imagematcher/types"
)

// ImageLoader interface defines methods for image loading
type ImageLoader interface {
	// CanLoad determines if this loader can handle the given file
	CanLoad(path string) bool

	// LoadImage loads an image as a single channel 8-bit Mat
	LoadImage(path string) (gocv.Mat, error)
}

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return true
		}
	}
	return false
}

// checkReadable rejects files that cannot hold an image before any decoder runs
func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return newImageLoadError("cannot stat image", path, err)
	}
	if info.IsDir() {
		return newImageLoadError("path is a directory", path, nil)
	}
	if info.Size() == 0 {
		return newImageLoadError("zero-byte image", path, nil)
	}
	return nil
}

// newImageLoadError creates a decode error for path, wrapping types.ErrDecode
func newImageLoadError(message, path string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %s: %v", types.ErrDecode, message, path, cause)
	}
	return fmt.Errorf("%w: %s: %s", types.ErrDecode, message, path)
}
