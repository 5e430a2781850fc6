package cache

// ScopedKeyer prefixes every key of an inner Keyer. The server scopes keys
// by tree id so that a tree's entries can be listed and evicted together.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "tree:smith:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// Prefix returns the scope prefix.
func (k *ScopedKeyer) Prefix() string { return k.prefix }

func (k *ScopedKeyer) LayersKey(treeHash string, opts LayersKeyOpts) string {
	return k.prefix + k.inner.LayersKey(treeHash, opts)
}

func (k *ScopedKeyer) GridKey(treeHash string, opts GridKeyOpts) string {
	return k.prefix + k.inner.GridKey(treeHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(gridHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(gridHash, opts)
}
