package loader

import (
	"io"
)

// loaderBackend defines the generic interface for loading assets from files or streams.
// Concrete implementations (e.g., gltfLoaderBackendImpl) handle format-specific details.
type loaderBackend interface {
	// Load performs a full import from the given file path: meshes, materials, textures,
	// skeleton and animation clips.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if loading fails
	Load(path string) (*Asset, error)

	// LoadMeshOnly imports only mesh, material and texture data from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *Asset: the imported asset without skeleton or clips
	//   - error: error if loading fails
	LoadMeshOnly(path string) (*Asset, error)

	// LoadReader imports a self-contained asset from a reader stream.
	//
	// Parameters:
	//   - name: the model name
	//   - r: the reader providing the asset data
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*Asset, error)
}
