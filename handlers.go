package authstore

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/oauth2"
)

func (a *Auth) csrfHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	_, hash := a.csrfCookie(w)

	_, _ = w.Write([]byte(hash))
}

func (a *Auth) sessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	pair, authenticated, err := a.Authenticate(r)
	if err != nil {
		log.Errorf("error while reading session: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var body any = struct{}{}
	if authenticated {
		body = pair
	}

	writeJSON(w, body)
}

func (a *Auth) providerHandler(path provider, w http.ResponseWriter, r *http.Request) {
	switch provider := a.providers[path.providerId].(type) {
	case OAuthProvider:
		a.oauthSignInHandler(provider, w, r)
	case EmailProvider:
		a.emailSignInHandler(provider, w, r)
	default:
		http.NotFound(w, r)
	}
}

func (a *Auth) oauthSignInHandler(provider OAuthProvider, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	verifier, hash := a.csrfCookie(w)

	authURL := provider.Config().AuthCodeURL(hash, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	if r.Header.Get("X-NoRedirect") != "" {
		_, _ = w.Write([]byte(authURL))
	} else {
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	}
}

func (a *Auth) emailSignInHandler(provider EmailProvider, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !a.validCsrf(r) {
		http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("email")))
	if email == "" {
		http.Error(w, "No email provided", http.StatusBadRequest)
		return
	}
	if err := validate.Var(email, "email"); err != nil {
		http.Error(w, "Invalid email", http.StatusBadRequest)
		return
	}

	token := oauth2.GenerateVerifier()
	_, err := a.adapter.CreateVerificationToken(r.Context(), VerificationToken{
		Identifier: email,
		Token:      a.hashToken(token),
		Expires:    time.Now().Add(a.options.VerificationMaxAge),
	})
	if err != nil {
		log.Errorf("error while creating verification token: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	link := a.callbackURL(r, provider.ID()) + "?" + url.Values{"token": {token}, "email": {email}}.Encode()
	if err := provider.SendVerificationRequest(r.Context(), email, link); err != nil {
		log.Errorf("error while sending verification request: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *Auth) providerCallbackHandler(path callback, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch provider := a.providers[path.providerId].(type) {
	case OAuthProvider:
		a.oauthCallbackHandler(provider, w, r)
	case EmailProvider:
		a.emailCallbackHandler(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (a *Auth) oauthCallbackHandler(provider OAuthProvider, w http.ResponseWriter, r *http.Request) {
	sessionVerifierCookie, err := r.Cookie(a.options.CsrfCookieName)
	a.removeCookie(a.options.CsrfCookieName, w)
	if err != nil || generateHMAC(sessionVerifierCookie.Value, a.stateSecret) != r.URL.Query().Get("state") {
		a.fail(w, r, http.StatusForbidden, "Invalid CSRF token")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		a.fail(w, r, http.StatusBadRequest, "No code provided")
		return
	}

	token, err := provider.Config().Exchange(r.Context(), code, oauth2.VerifierOption(sessionVerifierCookie.Value))
	if err != nil {
		a.fail(w, r, http.StatusUnauthorized, "Code exchange failed")
		return
	}

	client := provider.Config().Client(r.Context(), token)

	userDetails, err := provider.FetchUserData(r.Context(), client)
	if err != nil {
		a.fail(w, r, http.StatusUnauthorized, "Could not fetch user details")
		return
	}

	user, err := a.signInOAuth(r.Context(), provider, token, userDetails)
	if err != nil {
		log.Errorf("error while processing OAuth callback: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := a.startSession(r.Context(), w, user.ID); err != nil {
		log.Errorf("error while creating session: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, a.options.SuccessRedirectUrl, http.StatusTemporaryRedirect)
}

func (a *Auth) emailCallbackHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	email := r.URL.Query().Get("email")
	if token == "" || email == "" {
		a.fail(w, r, http.StatusBadRequest, "Invalid sign-in link")
		return
	}

	vt, err := a.adapter.UseVerificationToken(r.Context(), email, a.hashToken(token))
	if err != nil {
		log.Errorf("error while using verification token: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if vt == nil || vt.Expires.Before(time.Now()) {
		a.fail(w, r, http.StatusForbidden, "Sign-in link is invalid or has expired")
		return
	}

	user, err := a.signInEmail(r.Context(), email)
	if err != nil {
		log.Errorf("error while processing email callback: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := a.startSession(r.Context(), w, user.ID); err != nil {
		log.Errorf("error while creating session: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, a.options.SuccessRedirectUrl, http.StatusTemporaryRedirect)
}

func (a *Auth) providersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	info := make(map[string]any, len(a.providers))
	for id, provider := range a.providers {
		info[id] = provider.Info()
	}

	writeJSON(w, info)
}

func (a *Auth) signOutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !a.validCsrf(r) {
		http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		return
	}

	a.removeCookie(a.options.CsrfCookieName, w)

	if err := a.SignOut(w, r); err != nil {
		log.Errorf("error while signing out: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
}

// fail redirects to the configured failure page, or writes the error when there is none.
func (a *Auth) fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	if a.options.FailureRedirectUrl == "" {
		http.Error(w, message, status)
		return
	}

	http.Redirect(w, r, a.options.FailureRedirectUrl, http.StatusTemporaryRedirect)
}

func (a *Auth) callbackURL(r *http.Request, providerId string) string {
	scheme := "http"
	if r.TLS != nil || a.options.CookieSecure {
		scheme = "https"
	}

	return scheme + "://" + r.Host + a.basePath + "/" + providerId + "/callback"
}

func writeJSON(w http.ResponseWriter, v any) {
	by, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(by)
}
