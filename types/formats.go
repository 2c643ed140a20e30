package types

import (
	"path/filepath"
	"sort"
	"strings"
)

// imageFormats maps every candidate image extension to its format name
var imageFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".bmp":  "bmp",
}

// ImageFormat returns the format name of path and whether its extension is
// a candidate image extension. Matching is case-insensitive.
func ImageFormat(path string) (string, bool) {
	format, ok := imageFormats[strings.ToLower(filepath.Ext(path))]
	return format, ok
}

// ImageExtensions returns the candidate image extensions, sorted
func ImageExtensions() []string {
	exts := make([]string, 0, len(imageFormats))
	for ext := range imageFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
