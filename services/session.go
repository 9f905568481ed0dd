package services

// Session identifies the caller of a cart operation: either an
// authenticated user or an anonymous guest session.
type Session struct {
	UserID       string
	SessionToken string
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// OwnerKey returns the cart key for this session.
func (s Session) OwnerKey() string {
	if s.Authenticated() {
		return s.UserID
	}
	return s.SessionToken
}
