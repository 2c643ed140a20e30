package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchRequestValidate(t *testing.T) {
	ok := MatchRequest{QueryPath: "q.jpg", CorpusRoot: "dir", Threshold: 50}
	assert.NoError(t, ok.Validate())

	for _, th := range []float64{0, 100} {
		r := ok
		r.Threshold = th
		assert.NoError(t, r.Validate(), th)
	}
	for _, th := range []float64{-1, 100.01, math.NaN(), math.Inf(-1)} {
		r := ok
		r.Threshold = th
		assert.Error(t, r.Validate(), th)
	}

	assert.Error(t, MatchRequest{CorpusRoot: "dir"}.Validate())
	assert.Error(t, MatchRequest{QueryPath: "q.jpg"}.Validate())
}

func TestImageFormat(t *testing.T) {
	tests := map[string]string{
		"a.jpg":     "jpeg",
		"b.JPEG":    "jpeg",
		"dir/c.Png": "png",
		"d.bmp":     "bmp",
	}
	for path, want := range tests {
		got, ok := ImageFormat(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	assert.Equal(t, []string{".bmp", ".jpeg", ".jpg", ".png"}, ImageExtensions())
	for _, path := range []string{"e.gif", "f.tiff", "noext", "g.jpg.txt"} {
		_, ok := ImageFormat(path)
		assert.False(t, ok, path)
	}
}
