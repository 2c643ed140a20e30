package imageprocessor

import "imagematcher/types"

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatBMP     FormatType = "bmp"
)

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	format, ok := types.ImageFormat(path)
	if !ok {
		return FormatUnknown
	}
	return FormatType(format)
}
