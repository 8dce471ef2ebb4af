package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	opts importOptions
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
// Documents are decoded by qmuntal/gltf and converted by a gltfImporter.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - opts: the import options shared by every load
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend(opts importOptions) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{opts: opts}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*Asset, error) {
	return b.open(path, false)
}

func (b *gltfLoaderBackendImpl) LoadMeshOnly(path string) (*Asset, error) {
	return b.open(path, true)
}

func (b *gltfLoaderBackendImpl) open(path string, meshOnly bool) (*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf: open: %w", err)
	}

	opts := b.opts
	opts.meshOnly = meshOnly
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return newGLTFImporter(doc, filepath.Dir(path), opts).Import(name)
}

func (b *gltfLoaderBackendImpl) LoadReader(name string, r io.Reader) (*Asset, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("gltf: decode: %w", err)
	}
	return newGLTFImporter(doc, "", b.opts).Import(name)
}
