package authstore

import "context"

// Adapter persists users, sessions, linked accounts and verification tokens.
// Lookups return a nil record and a nil error when nothing matches.
type Adapter interface {
	CreateUser(ctx context.Context, user User) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByAccount(ctx context.Context, provider string, providerAccountID string) (*User, error)
	// UpdateUser fails with ErrInvariantViolation if patch.ID is empty and with
	// ErrNotFound if no user has that id.
	UpdateUser(ctx context.Context, patch UserPatch) (*User, error)
	DeleteUser(ctx context.Context, id string) error

	LinkAccount(ctx context.Context, account Account) (*Account, error)
	UnlinkAccount(ctx context.Context, provider string, providerAccountID string) error

	// GetSessionAndUser returns nil when the session is missing, incomplete or
	// points at a user that no longer exists.
	GetSessionAndUser(ctx context.Context, sessionToken string) (*SessionAndUser, error)
	CreateSession(ctx context.Context, session Session) (*Session, error)
	// UpdateSession returns nil when no session has patch.SessionToken.
	UpdateSession(ctx context.Context, patch SessionPatch) (*Session, error)
	DeleteSession(ctx context.Context, sessionToken string) error

	CreateVerificationToken(ctx context.Context, token VerificationToken) (*VerificationToken, error)
	// UseVerificationToken consumes the token. It returns nil when the token
	// never existed or was already used.
	UseVerificationToken(ctx context.Context, identifier string, token string) (*VerificationToken, error)
}
