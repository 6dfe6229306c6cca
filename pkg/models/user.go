package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered viewer or administrator
type User struct {
	ID           int64           `json:"id" db:"id"`
	Email        string          `json:"email" db:"email"`
	PasswordHash string          `json:"-" db:"password_hash"`
	Balance      decimal.Decimal `json:"balance" db:"balance"`
	Role         UserRole        `json:"role" db:"role"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	IsDeleted    bool            `json:"is_deleted" db:"is_deleted"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// UserRole represents user roles
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// CanSignIn reports whether the account may start or keep a session
func (u *User) CanSignIn() bool {
	return u.IsActive && !u.IsDeleted
}

// CanAfford reports whether the wallet covers the given price
func (u *User) CanAfford(price decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(price)
}

