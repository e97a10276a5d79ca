package domain

import "time"

// Role grants privileges to an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account keyed by its username.
type User struct {
	Username     string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         Role      `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`

	// LegacyPassword is the plaintext password written by older deployments.
	// It is cleared once the account is upgraded to a hash.
	LegacyPassword string `json:"password,omitempty"`
}

// IsAdmin reports whether the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Users is the users collection, keyed by username.
type Users map[string]User

// EmailTaken reports whether any account already uses email.
func (u Users) EmailTaken(email string) bool {
	for _, user := range u {
		if user.Email == email {
			return true
		}
	}
	return false
}
