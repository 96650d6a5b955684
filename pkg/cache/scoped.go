package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each tenant or
// environment its own namespace in a shared backend:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with prefix. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PreviewKey returns the prefixed preview key.
func (k *ScopedKeyer) PreviewKey(layoutHash string, opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(layoutHash, opts)
}

// PageKey returns the prefixed page key.
func (k *ScopedKeyer) PageKey(pageID string) string {
	return k.prefix + k.inner.PageKey(pageID)
}
