package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several tenants
// or config profiles can share one backend.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "team:ops:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner. A nil inner selects DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SpecKey implements Keyer.
func (k *ScopedKeyer) SpecKey(sourceHash string, opts SpecKeyOpts) string {
	return k.prefix + k.inner.SpecKey(sourceHash, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sourceHash, opts)
}
