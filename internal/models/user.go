package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the access tier of an account.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "STUDENT"
)

// User is an application account. Accounts start unverified and inactive
// until the email verification token is redeemed; repeated login failures
// lock the account.
type User struct {
	UserID            string    `db:"user_id" json:"userId"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	FirstName         string    `db:"first_name" json:"firstName"`
	LastName          string    `db:"last_name" json:"lastName"`
	Role              UserRole  `db:"role" json:"role"`
	Verified          bool      `db:"verified" json:"verified"`
	Locked            bool      `db:"locked" json:"locked"`
	Deleted           bool      `db:"deleted" json:"-"`
	FailedLogins      int       `db:"failed_logins" json:"-"`
	VerificationToken *string   `db:"verification_token" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures admin user listing criteria.
type UserFilter struct {
	PageFilter
	Search string
}

// JWTClaims is the access-token payload.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
