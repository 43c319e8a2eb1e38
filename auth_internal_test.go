package authstore

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestAccountFromToken(t *testing.T) {
	expiry := time.Unix(1700000000, 0)
	token := (&oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}).WithExtra(map[string]any{"scope": "openid email", "id_token": "jwt"})

	account := accountFromToken("user-1", "google", "1099", token)

	assert.Equal(t, "oidc", account.Type)
	require.NotNil(t, account.AccessToken)
	assert.Equal(t, "access", *account.AccessToken)
	require.NotNil(t, account.RefreshToken)
	assert.Equal(t, "refresh", *account.RefreshToken)
	require.NotNil(t, account.ExpiresAt)
	assert.Equal(t, int64(1700000000), *account.ExpiresAt)
	require.NotNil(t, account.Scope)
	assert.Equal(t, "openid email", *account.Scope)
	require.NotNil(t, account.IDToken)
	assert.Equal(t, "jwt", *account.IDToken)
	assert.NoError(t, account.Validate())
}

func TestAccountFromPlainToken(t *testing.T) {
	account := accountFromToken("user-1", "github", "42", &oauth2.Token{AccessToken: "access"})

	assert.Equal(t, "oauth", account.Type)
	assert.Nil(t, account.RefreshToken)
	assert.Nil(t, account.ExpiresAt)
	assert.Nil(t, account.IDToken)
}

func TestValidCsrf(t *testing.T) {
	a := NewAuth("/api/auth", nil, nil, AuthOptions{Secret: "secret"})
	cookie := &http.Cookie{Name: a.options.CsrfCookieName, Value: "verifier"}

	tests := []struct {
		name   string
		header string
		cookie *http.Cookie
		want   bool
	}{
		{"matching header", generateHMAC("verifier", "secret"), cookie, true},
		{"wrong secret", generateHMAC("verifier", "other"), cookie, false},
		{"missing header", "", cookie, false},
		{"missing cookie", generateHMAC("verifier", "secret"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/auth/sign-out", nil)
			if tt.header != "" {
				r.Header.Set("X-Csrf-Token", tt.header)
			}
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}

			assert.Equal(t, tt.want, a.validCsrf(r))
		})
	}
}
