package authstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/oauth2"
)

type Auth struct {
	basePath  string
	adapter   Adapter
	providers map[string]Provider
	options   AuthOptions

	stateSecret string
}

type contextKey struct{}

func NewAuth(basePath string, adapter Adapter, providers []Provider, options ...AuthOptions) *Auth {
	if len(options) > 1 {
		panic("more than one AuthOptions entries provided")
	}

	providerMap := make(map[string]Provider)
	for _, provider := range providers {
		if _, ok := providerMap[provider.ID()]; ok {
			panic(fmt.Sprintf("Provider with ID '%s' already registered", provider.ID()))
		}

		providerMap[provider.ID()] = provider
	}

	var authOptions AuthOptions
	if len(options) == 1 {
		authOptions = options[0]
	}
	authOptions = authOptions.withDefaults()

	secret := authOptions.Secret
	if secret == "" {
		secret = oauth2.GenerateVerifier()
	}

	return &Auth{
		basePath:    strings.TrimSuffix(basePath, "/"),
		adapter:     adapter,
		stateSecret: secret,
		providers:   providerMap,
		options:     authOptions,
	}
}

// Adapter returns the used database adapter, which can be used to remove sessions, etc.
func (a *Auth) Adapter() Adapter {
	return a.adapter
}

func (a *Auth) BasePath() string {
	return a.basePath
}

func (a *Auth) Handlers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch path := parsePath(r.URL.Path, a.basePath).(type) {
		case csrf:
			a.csrfHandler(w, r)
		case session:
			a.sessionHandler(w, r)
		case provider:
			a.providerHandler(path, w, r)
		case callback:
			a.providerCallbackHandler(path, w, r)
		case providers:
			a.providersHandler(w, r)
		case signOut:
			a.signOutHandler(w, r)
		case notFound:
			w.WriteHeader(http.StatusNotFound)
		case unmatched:
			next.ServeHTTP(w, r)
		}
	})
}

// SignOut signs out a user based on the value of the session token found in the request's cookies.
// Method **does not** send any status codes on fail, instead returning the encountered error.
// Not CSRF-protected.
func (a *Auth) SignOut(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(a.options.SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil
		}
		return err
	}

	if err := a.adapter.DeleteSession(r.Context(), cookie.Value); err != nil {
		return err
	}

	a.removeCookie(a.options.SessionCookieName, w)

	return nil
}

func (a *Auth) Authenticate(r *http.Request) (*SessionAndUser, bool, error) {
	cookie, err := r.Cookie(a.options.SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return a.AuthenticateSession(r.Context(), cookie.Value)
}

// AuthenticateSession resolves a session token to its session and user.
// Expired sessions are removed and reported as unauthenticated. Sessions last
// extended more than SessionUpdateAge ago are extended to SessionMaxAge.
func (a *Auth) AuthenticateSession(ctx context.Context, sessionToken string) (*SessionAndUser, bool, error) {
	pair, err := a.adapter.GetSessionAndUser(ctx, sessionToken)
	if err != nil {
		return nil, false, err
	}
	if pair == nil {
		return nil, false, nil
	}

	now := time.Now()
	if pair.Session.Expires.Before(now) {
		log.Debugf("session %s expired at %s", pair.Session.ID, pair.Session.Expires)

		if err := a.adapter.DeleteSession(ctx, sessionToken); err != nil {
			log.Errorf("error while removing expired session: %v", err)
		}

		return nil, false, nil
	}

	if now.After(pair.Session.Expires.Add(a.options.SessionUpdateAge - a.options.SessionMaxAge)) {
		expires := now.Add(a.options.SessionMaxAge)

		updated, err := a.adapter.UpdateSession(ctx, SessionPatch{SessionToken: sessionToken, Expires: &expires})
		if err != nil {
			log.Errorf("error while extending session: %v", err)
		} else if updated != nil {
			pair.Session = *updated
		}
	}

	return pair, true, nil
}

// Middleware rejects unauthenticated requests with 401. Authenticated
// requests carry their session, see SessionFromContext.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pair, authenticated, err := a.Authenticate(r)
		if err != nil {
			log.Errorf("error while authenticating request: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if !authenticated {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		a.setSessionCookie(w, pair.Session)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, pair)))
	})
}

// SessionFromContext returns the session stored by Middleware.
func SessionFromContext(ctx context.Context) (*SessionAndUser, bool) {
	pair, ok := ctx.Value(contextKey{}).(*SessionAndUser)
	return pair, ok
}

func (a *Auth) signInOAuth(ctx context.Context, provider OAuthProvider, token *oauth2.Token, userDetails *OAuthUserDetails) (*User, error) {
	user, err := a.adapter.GetUserByAccount(ctx, provider.ID(), userDetails.ProviderAccountId)
	if err != nil {
		return nil, err
	}

	// An account is keyed by the provider ID and provider account ID, and points at a
	// user uniquely identified by email. If the user changes their email on the provider
	// side the change is not reflected here, since the account key pair wins.
	if user != nil {
		log.Debugf("account for details (%s, %s) exists, user id: %s", provider.ID(), userDetails.ProviderAccountId, user.ID)
		return user, nil
	}

	log.Debugf("account for details (%s, %s) does not exist, creating new entry", provider.ID(), userDetails.ProviderAccountId)

	user, err = a.adapter.GetUserByEmail(ctx, userDetails.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		log.Debugf("user with email %s does not exist, creating new entry", userDetails.Email)

		newUser := User{Email: userDetails.Email, Image: userDetails.AvatarUrl}
		if userDetails.Username != "" {
			newUser.Name = &userDetails.Username
		}

		user, err = a.adapter.CreateUser(ctx, newUser)
		if err != nil {
			return nil, err
		}
	}

	if _, err := a.adapter.LinkAccount(ctx, accountFromToken(user.ID, provider.ID(), userDetails.ProviderAccountId, token)); err != nil {
		return nil, err
	}

	return user, nil
}

// signInEmail finds or creates the user owning email and marks the address as verified.
func (a *Auth) signInEmail(ctx context.Context, email string) (*User, error) {
	user, err := a.adapter.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if user == nil {
		log.Debugf("user with email %s does not exist, creating new entry", email)
		return a.adapter.CreateUser(ctx, User{Email: email, EmailVerified: &now})
	}

	if user.EmailVerified == nil {
		return a.adapter.UpdateUser(ctx, UserPatch{ID: user.ID, EmailVerified: &now})
	}

	return user, nil
}

func (a *Auth) startSession(ctx context.Context, w http.ResponseWriter, userID string) error {
	session, err := a.adapter.CreateSession(ctx, Session{
		SessionToken: oauth2.GenerateVerifier(),
		UserID:       userID,
		Expires:      time.Now().Add(a.options.SessionMaxAge),
	})
	if err != nil {
		return err
	}

	a.setSessionCookie(w, *session)
	return nil
}

func accountFromToken(userID, providerID, providerAccountID string, token *oauth2.Token) Account {
	account := Account{
		UserID:            userID,
		Type:              "oauth",
		Provider:          providerID,
		ProviderAccountID: providerAccountID,
	}
	if token == nil {
		return account
	}

	if token.AccessToken != "" {
		account.AccessToken = &token.AccessToken
	}
	if token.RefreshToken != "" {
		account.RefreshToken = &token.RefreshToken
	}
	if token.TokenType != "" {
		account.TokenType = &token.TokenType
	}
	if !token.Expiry.IsZero() {
		expiresAt := token.Expiry.Unix()
		account.ExpiresAt = &expiresAt
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		account.Scope = &scope
	}
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		account.IDToken = &idToken
		account.Type = "oidc"
	}

	return account
}

// csrfCookie sets a CSRF cookie with the generated random string as value.
// Returns the random string and its hashed representation (using a secret).
func (a *Auth) csrfCookie(w http.ResponseWriter) (string, string) {
	verifier := oauth2.GenerateVerifier()
	hash := generateHMAC(verifier, a.stateSecret)

	http.SetCookie(w, &http.Cookie{
		Name:     a.options.CsrfCookieName,
		Value:    verifier,
		Path:     "/",
		Domain:   a.options.CookieDomain,
		Secure:   a.options.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return verifier, hash
}

// validCsrf checks the hash sent in the X-Csrf-Token header (or csrf_token
// form field) against the CSRF cookie.
func (a *Auth) validCsrf(r *http.Request) bool {
	hash := r.Header.Get("X-Csrf-Token")
	if hash == "" {
		hash = r.PostFormValue("csrf_token")
	}

	cookie, err := r.Cookie(a.options.CsrfCookieName)
	if err != nil || hash == "" {
		return false
	}

	return hmac.Equal([]byte(generateHMAC(cookie.Value, a.stateSecret)), []byte(hash))
}

func (a *Auth) setSessionCookie(w http.ResponseWriter, session Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.options.SessionCookieName,
		Value:    session.SessionToken,
		Path:     "/",
		Domain:   a.options.CookieDomain,
		Expires:  session.Expires,
		HttpOnly: true,
		Secure:   a.options.CookieSecure,
		SameSite: a.options.CookieSameSite,
	})
}

func (a *Auth) removeCookie(name string, w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   a.options.CookieDomain,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
}

// hashToken derives the stored form of a verification token.
func (a *Auth) hashToken(token string) string {
	return generateHMAC(token, a.stateSecret)
}

func generateHMAC(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))

	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}
