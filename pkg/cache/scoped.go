package cache

// ScopedKeyer wraps a Keyer with a prefix so several producers can share
// one cache directory without colliding.
//
// Example usage:
//
//	// Exports served by the HTTP API
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
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

// ExportKey generates a prefixed key for export caching.
func (k *ScopedKeyer) ExportKey(docHash string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(docHash, opts)
}
