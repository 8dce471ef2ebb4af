// Package loader imports glTF 2.0 assets into engine models and animation clips.
package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
)

// ErrNoMesh is returned when an asset contains no drawable triangle primitive.
var ErrNoMesh = errors.New("loader: asset contains no triangle mesh")

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// Asset is a loaded model together with the animation clips that target its skeleton.
type Asset struct {
	Model model.Model
	Clips []animator.Clip
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache   map[string]*Asset
	backend loaderBackend

	smoothNormals bool
}

// Loader defines the public-facing interface for loading and caching model assets.
// It abstracts the file format behind a backend and keeps every loaded asset by key.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the asset is already cached (by file path), the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the .gltf or .glb file
	//
	// Returns:
	//   - *Asset: the loaded and cached asset
	//   - error: error if loading fails
	Load(path string) (*Asset, error)

	// LoadMeshOnly imports only mesh, material and texture data, skipping skeleton and animations.
	// Skinned primitives are posed at their bind pose and drawn as static geometry.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *Asset: the loaded asset without skeleton or clips
	//   - error: error if loading fails
	LoadMeshOnly(path string) (*Asset, error)

	// LoadReader imports a self-contained glTF or GLB stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key and model name
	//   - r: the reader providing the asset
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*Asset, error)

	// Get retrieves a cached asset by key. Returns nil if not found.
	Get(name string) *Asset

	// Assets returns a copy of the asset cache.
	//
	// Returns:
	//   - map[string]*Asset: all cached assets keyed by name
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache: make(map[string]*Asset),
	}

	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(importOptions{smoothNormals: l.smoothNormals})
	}
	return l
}

func (l *loader) Load(path string) (*Asset, error) {
	return l.loadPath(path, false)
}

func (l *loader) LoadMeshOnly(path string) (*Asset, error) {
	return l.loadPath(path, true)
}

func (l *loader) loadPath(path string, meshOnly bool) (*Asset, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	var a *Asset
	if meshOnly {
		a, err = backend.LoadMeshOnly(path)
	} else {
		a, err = backend.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loader: load %s: %w", path, err)
	}

	l.store(path, a)
	return a, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (*Asset, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}
	if l.backend == nil {
		return nil, fmt.Errorf("loader: no backend configured")
	}

	a, err := l.backend.LoadReader(name, r)
	if err != nil {
		return nil, fmt.Errorf("loader: load from reader %q: %w", name, err)
	}

	l.store(name, a)
	return a, nil
}

func (l *loader) store(key string, a *Asset) {
	l.mu.Lock()
	l.cache[key] = a
	l.mu.Unlock()

	common.Logger().Info("model loaded",
		"name", a.Model.Name(),
		"meshObjects", len(a.Model.MeshObjects()),
		"bones", a.Model.BoneCount(),
		"textures", len(a.Model.TextureNames()),
		"clips", len(a.Clips))
}

func (l *loader) Get(name string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Asset, len(l.cache))
	for k, v := range l.cache {
		result[k] = v
	}
	return result
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if l.backend == nil {
			return nil, fmt.Errorf("loader: no backend configured")
		}
		return l.backend, nil
	default:
		return nil, fmt.Errorf("loader: unsupported model format %q", ext)
	}
}
