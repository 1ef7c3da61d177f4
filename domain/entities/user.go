package entities

import (
	"fmt"
	"time"
)

// User is a registered account. Email, username and phone are each globally
// unique; uniqueness is enforced by UniqueProperty side rows written in the
// same transaction as the user row.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Name      string    `json:"name,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser creates a user. At least one unique identifier (email, username or
// phone) must be present.
func NewUser(email, username, phone, name string) (*User, error) {
	if email == "" && username == "" && phone == "" {
		return nil, fmt.Errorf("at least one of email, username, phone is required")
	}
	return &User{
		ID:        NewUserID(),
		Email:     email,
		Username:  username,
		Phone:     phone,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UniqueProperties returns the unique-property rows this user claims.
func (u *User) UniqueProperties() []UniqueProperty {
	var props []UniqueProperty
	if u.Email != "" {
		props = append(props, UniqueProperty{Kind: UniquePropertyEmail, Value: u.Email, UserID: u.ID})
	}
	if u.Username != "" {
		props = append(props, UniqueProperty{Kind: UniquePropertyUsername, Value: u.Username, UserID: u.ID})
	}
	if u.Phone != "" {
		props = append(props, UniqueProperty{Kind: UniquePropertyPhone, Value: u.Phone, UserID: u.ID})
	}
	return props
}

// UniquePropertyKind names a globally unique user property.
type UniquePropertyKind string

const (
	UniquePropertyEmail    UniquePropertyKind = "EMAIL"
	UniquePropertyUsername UniquePropertyKind = "USERNAME"
	UniquePropertyPhone    UniquePropertyKind = "PHONE"
)

// Valid reports whether k is a known unique-property kind.
func (k UniquePropertyKind) Valid() bool {
	switch k {
	case UniquePropertyEmail, UniquePropertyUsername, UniquePropertyPhone:
		return true
	}
	return false
}

// UniqueProperty maps a (kind, value) pair to at most one user.
type UniqueProperty struct {
	Kind   UniquePropertyKind
	Value  string
	UserID string
}
