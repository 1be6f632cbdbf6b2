package cache

// ScopedKeyer wraps a Keyer with a prefix so that several producers can
// share one backend without reading each other's entries.
//
// Example usage:
//
//	// Entries written by this build only
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v"+buildinfo.Version+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ResultKey generates a prefixed key for merge report caching.
func (k *ScopedKeyer) ResultKey(platform, configHash, graphHash string) string {
	return k.prefix + k.inner.ResultKey(platform, configHash, graphHash)
}
