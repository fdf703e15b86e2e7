package domain

// User is an account whose tracked items are re-priced on every run.
// Owned by account management; the engine only reads it.
type User struct {
	ID                string
	Email             *string // registered notification address (nullable)
	HasPushCapability bool
}

// EmailAddress returns the registered email or "" when none is set.
func (u *User) EmailAddress() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Email = cloneString(u.Email)
	return &c
}
