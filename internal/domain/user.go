// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxNameLen  = 64
	MaxEmailLen = 128
)

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
	ErrEmailEmpty  = errors.New("email empty")
)

type UserID string

type User struct {
	ID        UserID    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:128" json:"email"`
	Password  string    `gorm:"size:128" json:"-"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in handlers.
// password must already be hashed.
func NewUser(name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	if email == "" || len(email) > MaxEmailLen {
		return nil, ErrEmailEmpty
	}
	return &User{
		ID:       UserID(uuid.NewString()),
		Name:     name,
		Email:    email,
		Password: password,
	}, nil
}
