package model

import (
	"fmt"
	"time"
)

// User is a registered account. Reporters, finders and claimants are all users.
type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"role"`
	IsBlocked       bool      `json:"isBlocked"`
	ReputationScore int       `json:"reputationScore"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Role is the access level of a user.
type Role string

// Roles.
const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum Role) bool {
	levels := map[Role]int{
		RoleAdmin:  2,
		RoleMember: 1,
	}
	return levels[minimum] > 0 && levels[role] >= levels[minimum]
}

// PublicUser is the subset of user fields exposed alongside items and claims.
type PublicUser struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ReputationScore int    `json:"reputationScore"`
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidatePassword checks that a password satisfies the minimum policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
