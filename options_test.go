package authstore

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptionsWithDefaultsMinimal(t *testing.T) {
	opts := AuthOptions{
		SessionCookieName: "",
		CookieSecure:      true,
	}.withDefaults()

	assert.Equal(t, sessionCookie, opts.SessionCookieName)
	assert.Equal(t, true, opts.CookieSecure)
	assert.Equal(t, http.SameSiteLaxMode, opts.CookieSameSite)
	assert.Equal(t, "/", opts.SuccessRedirectUrl)
	assert.Equal(t, 30*24*time.Hour, opts.SessionMaxAge)
	assert.Equal(t, 24*time.Hour, opts.SessionUpdateAge)
	assert.Equal(t, 24*time.Hour, opts.VerificationMaxAge)
}

func TestOptionsWithDefaultsFull(t *testing.T) {
	opts := AuthOptions{
		SessionCookieName:  "foo",
		CookieSecure:       false,
		CookieSameSite:     http.SameSiteDefaultMode,
		CookieDomain:       "foo.bar.com",
		SuccessRedirectUrl: "/home",
		Secret:             "s3cr3t",
		SessionMaxAge:      time.Hour,
		SessionUpdateAge:   10 * time.Minute,
		VerificationMaxAge: 5 * time.Minute,
	}.withDefaults()

	assert.Equal(t, csrfCookie, opts.CsrfCookieName)
	assert.Equal(t, "foo", opts.SessionCookieName)
	assert.Equal(t, false, opts.CookieSecure)
	assert.Equal(t, http.SameSiteDefaultMode, opts.CookieSameSite)
	assert.Equal(t, "foo.bar.com", opts.CookieDomain)
	assert.Equal(t, "/home", opts.SuccessRedirectUrl)
	assert.Equal(t, "s3cr3t", opts.Secret)
	assert.Equal(t, time.Hour, opts.SessionMaxAge)
	assert.Equal(t, 10*time.Minute, opts.SessionUpdateAge)
	assert.Equal(t, 5*time.Minute, opts.VerificationMaxAge)
}

func TestOptionsUpdateAgeCappedByMaxAge(t *testing.T) {
	opts := AuthOptions{
		SessionMaxAge:    time.Hour,
		SessionUpdateAge: 2 * time.Hour,
	}.withDefaults()

	assert.Equal(t, time.Hour, opts.SessionUpdateAge)
}
