package entities

import (
	"errors"
	"net/mail"
	"time"
)

// User is a registered bidder
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	IsBlocked    bool      `db:"is_blocked"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ValidateRegistration checks the fields supplied at sign-up
func ValidateRegistration(email, password, name string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email address")
	}
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	if name == "" {
		return errors.New("name is required")
	}
	return nil
}
