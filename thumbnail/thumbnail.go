// Package thumbnail renders small JPEG previews for match results.
package thumbnail

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"imagematcher/types"
)

// Quality is the JPEG quality of rendered previews
const Quality = 85

// Render writes a preview of ref.Source into dir, scaled to fit within
// ref.Width x ref.Height with its aspect ratio kept, and returns the file path
func Render(ref types.ThumbnailRef, dir string) (string, error) {
	if ref.Width <= 0 || ref.Height <= 0 {
		return "", fmt.Errorf("invalid thumbnail size %dx%d", ref.Width, ref.Height)
	}

	src, err := decode(ref.Source)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create thumbnail dir: %w", err)
	}

	dst := image.NewRGBA(fitRect(src.Bounds(), ref.Width, ref.Height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := filepath.Join(dir, Name(ref.Source))
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := jpeg.Encode(f, dst, &jpeg.Options{Quality: Quality}); err != nil {
		f.Close()
		return "", fmt.Errorf("cannot encode thumbnail for %s: %w", ref.Source, err)
	}
	return out, f.Close()
}

// Name returns the preview file name for source. Sources sharing a base
// name in different directories get distinct names.
func Name(source string) string {
	h := fnv.New32a()
	h.Write([]byte(source))
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return fmt.Sprintf("%s-%08x.jpg", base, h.Sum32())
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecode, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrDecode, path, err)
	}
	return img, nil
}

// fitRect returns the largest rectangle within w x h with the aspect ratio of b
func fitRect(b image.Rectangle, w, h int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	if sw <= 0 || sh <= 0 {
		return image.Rect(0, 0, w, h)
	}
	tw, th := w, sh*w/sw
	if th > h {
		tw, th = sw*h/sh, h
	}
	return image.Rect(0, 0, max(tw, 1), max(th, 1))
}
