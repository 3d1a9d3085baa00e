package booking

// Caller is the identity a request acts as.  It is resolved once per
// request from the access token and passed explicitly to every
// operation.  The zero value is an anonymous visitor.
type Caller struct {
	ID      uint64
	IsAdmin bool
}

// Authenticated reports whether the caller is a known user.
func (c Caller) Authenticated() bool { return c.ID != 0 }

// IsOwner reports whether the caller is the user identified by userID.
func (c Caller) IsOwner(userID uint64) bool { return c.ID != 0 && c.ID == userID }

// CanAccess reports whether the caller may read or mutate a resource
// belonging to ownerID.
func (c Caller) CanAccess(ownerID uint64) bool { return c.IsAdmin || c.IsOwner(ownerID) }

// Authorize returns ErrForbidden unless the caller may access a resource
// belonging to ownerID.
func (c Caller) Authorize(ownerID uint64) error {
	if !c.CanAccess(ownerID) {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin returns ErrForbidden for non-admin callers.
func (c Caller) RequireAdmin() error {
	if !c.IsAdmin {
		return ErrForbidden
	}
	return nil
}
