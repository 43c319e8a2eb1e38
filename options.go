package authstore

import (
	"net/http"
	"time"
)

type AuthOptions struct {
	SessionCookieName string
	CsrfCookieName    string

	CookieSecure   bool
	CookieDomain   string
	CookieSameSite http.SameSite

	SuccessRedirectUrl string
	FailureRedirectUrl string

	// Secret signs CSRF state and hashes verification tokens before they are
	// stored. When empty a random secret is generated, so email links sent
	// before a restart stop working.
	Secret string

	SessionMaxAge      time.Duration
	SessionUpdateAge   time.Duration
	VerificationMaxAge time.Duration
}

const sessionCookie = "go-auth_session"
const csrfCookie = "go-auth_csrf"

const (
	defaultSessionMaxAge      = 30 * 24 * time.Hour
	defaultSessionUpdateAge   = 24 * time.Hour
	defaultVerificationMaxAge = 24 * time.Hour
)

func (left AuthOptions) withDefaults() AuthOptions {

	// SessionCookieName
	sessionCookieName := left.SessionCookieName
	if len(sessionCookieName) == 0 {
		sessionCookieName = sessionCookie
	}

	// CsrfCookieName
	csrfCookieName := left.CsrfCookieName
	if len(csrfCookieName) == 0 {
		csrfCookieName = csrfCookie
	}

	// CookieSameSite
	sameSite := left.CookieSameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}

	// SuccessRedirectUrl
	successRedirectUrl := left.SuccessRedirectUrl
	if len(successRedirectUrl) == 0 {
		successRedirectUrl = "/"
	}

	// Session ages
	maxAge := left.SessionMaxAge
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}

	updateAge := left.SessionUpdateAge
	if updateAge <= 0 || updateAge > maxAge {
		updateAge = min(defaultSessionUpdateAge, maxAge)
	}

	verificationMaxAge := left.VerificationMaxAge
	if verificationMaxAge <= 0 {
		verificationMaxAge = defaultVerificationMaxAge
	}

	defaults := AuthOptions{
		SessionCookieName: sessionCookieName,
		CsrfCookieName:    csrfCookieName,

		CookieSecure:   left.CookieSecure,
		CookieDomain:   left.CookieDomain,
		CookieSameSite: sameSite,

		SuccessRedirectUrl: successRedirectUrl,
		FailureRedirectUrl: left.FailureRedirectUrl,

		Secret: left.Secret,

		SessionMaxAge:      maxAge,
		SessionUpdateAge:   updateAge,
		VerificationMaxAge: verificationMaxAge,
	}

	return defaults
}
