package access

import "errors"

// ErrNotAuthorized is returned whenever a caller lacks the administrative or
// per-resource capability required by an operation.
var ErrNotAuthorized = errors.New("access: caller not authorized")

// Controller holds the administrative identity fixed at ledger initialization
// and exposes the authorization predicates shared by the native modules. There
// is no operation to transfer ownership.
type Controller struct {
	owner [20]byte
}

// NewController constructs a controller bound to the supplied owner address.
func NewController(owner [20]byte) *Controller {
	return &Controller{owner: owner}
}

// Owner returns the administrative identity.
func (c *Controller) Owner() [20]byte {
	if c == nil {
		return [20]byte{}
	}
	return c.owner
}

// IsOwner reports whether the caller is the administrative identity.
func (c *Controller) IsOwner(caller [20]byte) bool {
	return c != nil && caller == c.owner
}

// RequireOwner aborts with ErrNotAuthorized unless the caller is the
// administrative identity.
func (c *Controller) RequireOwner(caller [20]byte) error {
	if !c.IsOwner(caller) {
		return ErrNotAuthorized
	}
	return nil
}

// RequireSame aborts with ErrNotAuthorized unless caller and owner designate
// the same identity. It backs per-resource checks such as "caller is the
// recorded creator of video X".
func RequireSame(caller, owner [20]byte) error {
	if caller != owner {
		return ErrNotAuthorized
	}
	return nil
}
