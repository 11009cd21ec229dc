package database

import (
	"errors"
	"time"
)

var (
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidSession is returned for unknown, malformed or expired tokens.
	ErrInvalidSession = errors.New("invalid or expired session")
	// ErrUserNotFound is returned when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidInput is returned for empty names, emails or passwords.
	ErrInvalidInput = errors.New("name, email and password are required")
)

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session represents an authenticated user session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// ArtifactRecord is a registry entry for a published result.
type ArtifactRecord struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Carrier     string    `json:"carrier"`
	PayloadBits int       `json:"payloadBits"`
	UserID      int64     `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}
