package scoperesolve

import "sync/atomic"

// IdentifierProvider allocates unique, monotonically increasing integer ids
// for contexts created during one resolution pass.
type IdentifierProvider struct {
	counter atomic.Uint64
}

// NewIdentifierProvider returns a provider starting at 1.
func NewIdentifierProvider() *IdentifierProvider {
	return &IdentifierProvider{}
}

// NextID returns the next unique id.
func (p *IdentifierProvider) NextID() int {
	return int(p.counter.Add(1))
}
