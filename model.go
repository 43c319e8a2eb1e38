package authstore

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type User struct {
	ID            string     `json:"id"`
	Name          *string    `json:"name"`
	Email         string     `json:"email" validate:"required,email"`
	EmailVerified *time.Time `json:"email_verified"`
	Image         *string    `json:"image"`
	Phone         *string    `json:"phone"`
	Role          *string    `json:"role"`
}

// UserPatch describes a partial update of the user identified by ID.
// Nil fields are left untouched.
type UserPatch struct {
	ID            string
	Name          *string
	Email         *string `validate:"omitempty,email"`
	EmailVerified *time.Time
	Image         *string
	Phone         *string
	Role          *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.EmailVerified == nil &&
		p.Image == nil && p.Phone == nil && p.Role == nil
}

type Session struct {
	ID           string    `json:"id"`
	SessionToken string    `json:"session_token" validate:"required"`
	UserID       string    `json:"user_id" validate:"required"`
	Expires      time.Time `json:"expires" validate:"required"`
}

// Complete reports whether every field the auth flow relies on is present.
func (s *Session) Complete() bool {
	return s.ID != "" && s.SessionToken != "" && s.UserID != "" && !s.Expires.IsZero()
}

// SessionPatch updates the session identified by SessionToken.
type SessionPatch struct {
	SessionToken string
	UserID       *string
	Expires      *time.Time
}

type SessionAndUser struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}

// Account links a user to one identity at an external provider.
type Account struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id" validate:"required"`
	Type              string  `json:"type" validate:"required"`
	Provider          string  `json:"provider" validate:"required"`
	ProviderAccountID string  `json:"provider_account_id" validate:"required"`
	RefreshToken      *string `json:"refresh_token"`
	AccessToken       *string `json:"access_token"`
	ExpiresAt         *int64  `json:"expires_at"`
	TokenType         *string `json:"token_type"`
	Scope             *string `json:"scope"`
	IDToken           *string `json:"id_token"`
	SessionState      *string `json:"session_state"`
}

type VerificationToken struct {
	Identifier string    `json:"identifier" validate:"required"`
	Token      string    `json:"token" validate:"required"`
	Expires    time.Time `json:"expires" validate:"required"`
}

func (u *User) Validate() error {
	return check(u)
}

func (p *UserPatch) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: can't update user without id", ErrInvariantViolation)
	}
	return check(p)
}

func (s *Session) Validate() error {
	return check(s)
}

func (a *Account) Validate() error {
	return check(a)
}

func (t *VerificationToken) Validate() error {
	return check(t)
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	return nil
}
