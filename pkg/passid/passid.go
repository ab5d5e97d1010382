// Package passid stamps a correlation id on every diagnostic and log line
// produced by one ParseAsync call. It is a per-pass concern, distinct from
// the monotonic per-node integer ids scoperesolve.IdentifierProvider hands
// out.
package passid

import "github.com/google/uuid"

// PassID uniquely identifies one resolution pass.
type PassID string

// New returns a fresh, random PassID.
func New() PassID {
	return PassID(uuid.NewString())
}

func (p PassID) String() string { return string(p) }
