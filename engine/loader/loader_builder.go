package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithAsset is an option builder that pre-populates the asset cache.
//
// Parameters:
//   - key: the cache key for the asset
//   - a: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(key string, a *Asset) LoaderBuilderOption {
	return func(l *loader) {
		if a != nil {
			l.cache[key] = a
		}
	}
}

// WithNormalSmoothing is an option builder that enables the normal-smoothing kernel on every
// skinned mesh object the loader produces.
//
// Parameters:
//   - enabled: true to smooth skinned normals after deformation
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithNormalSmoothing(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.smoothNormals = enabled
	}
}
