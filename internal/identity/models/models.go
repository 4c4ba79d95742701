// Package models holds the identity records and request shapes.
package models

import (
	"strings"
	"time"

	domain "passbuy/pkg/domain"
	derrors "passbuy/pkg/domain-errors"
)

// User is the identity record. PasswordHash and PasswordSalt are opaque
// buffers owned by the password vault; nothing else inspects them.
type User struct {
	ID           domain.UserID
	Email        string
	DisplayName  string
	PasswordHash []byte
	PasswordSalt []byte
	CreatedAt    time.Time
}

type SignUpRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

func (r *SignUpRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.DisplayName = strings.TrimSpace(r.DisplayName)
}

func (r *SignUpRequest) Validate() error {
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return derrors.New(derrors.CodeValidation, "a valid email is required")
	}
	if r.DisplayName == "" {
		return derrors.New(derrors.CodeValidation, "display name is required")
	}
	if len(r.Password) < 8 {
		return derrors.New(derrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *SignInRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *SignInRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return derrors.New(derrors.CodeValidation, "email and password are required")
	}
	return nil
}

// TokenResult is returned by both signup and signin.
type TokenResult struct {
	UserID domain.UserID `json:"userId"`
	Token  string        `json:"token"`
}
