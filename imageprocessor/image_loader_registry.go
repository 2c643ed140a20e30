package imageprocessor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"imagematcher/logging"
	"imagematcher/types"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders  map[string]ImageLoader
	fallback ImageLoader
	mutex    sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with the OpenCV loader for every
// candidate format and the pure-Go loader as fallback
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	standardLoader := NewStandardImageLoader()
	for _, ext := range types.ImageExtensions() {
		registry.RegisterLoader(ext, standardLoader)
	}
	registry.fallback = NewGoImageLoader()

	return registry
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the loader registered for path's extension, or nil
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.loaders[strings.ToLower(filepath.Ext(path))]
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	return r.GetLoader(path) != nil
}

// LoadImage loads path with its registered loader, retrying with the
// fallback loader when the first attempt fails to decode
func (r *ImageLoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return gocv.NewMat(), fmt.Errorf("%w: no suitable loader found for: %s", types.ErrDecode, path)
	}

	img, err := loader.LoadImage(path)
	if err == nil {
		return img, nil
	}

	r.mutex.RLock()
	fallback := r.fallback
	r.mutex.RUnlock()
	if fallback == nil || fallback == loader || !fallback.CanLoad(path) {
		return img, err
	}

	logging.DebugLog("Primary loader failed for %s, trying fallback: %v", path, err)
	img.Close()
	fbImg, fbErr := fallback.LoadImage(path)
	if fbErr != nil {
		return fbImg, errors.Join(err, fbErr)
	}
	return fbImg, nil
}
