package authstore

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

type Provider interface {
	ID() string
	Info() any
}

type OAuthProvider interface {
	Provider

	Config() *oauth2.Config
	FetchUserData(ctx context.Context, client *http.Client) (*OAuthUserDetails, error)
}

// EmailProvider signs users in with single-use links. SendVerificationRequest
// must deliver url to identifier, usually an email address.
type EmailProvider interface {
	Provider

	SendVerificationRequest(ctx context.Context, identifier string, url string) error
}

type OAuthUserDetails struct {
	ProviderAccountId string  `json:"provider_account_id"`
	Email             string  `json:"email"`
	Username          string  `json:"username"`
	AvatarUrl         *string `json:"avatar_url"`
}
