package imageprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFileFormat(t *testing.T) {
	tests := []struct {
		path string
		want FormatType
	}{
		{"a.jpg", FormatJPEG},
		{"a.JPEG", FormatJPEG},
		{"dir/b.Png", FormatPNG},
		{"c.bmp", FormatBMP},
		{"d.gif", FormatUnknown},
		{"noext", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, GetFileFormat(tt.path))
		})
	}
}

func TestRegistryCanLoadFile(t *testing.T) {
	r := NewImageLoaderRegistry()
	assert.True(t, r.CanLoadFile("x.JPG"))
	assert.True(t, r.CanLoadFile("x.bmp"))
	assert.False(t, r.CanLoadFile("x.tiff"))
	assert.Nil(t, r.GetLoader("x.webp"))
}
