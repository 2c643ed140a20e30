package scanner

import "imagematcher/types"

// IsImageFile checks if a file extension belongs to a candidate image
func IsImageFile(path string) bool {
	_, ok := types.ImageFormat(path)
	return ok
}

// GetFileFormat returns the format name of a candidate image, or "" for other files
func GetFileFormat(path string) string {
	format, _ := types.ImageFormat(path)
	return format
}
