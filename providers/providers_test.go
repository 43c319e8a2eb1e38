package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGithubFetchUserData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"login":"octocat","id":583231,"avatar_url":"https://avatars.example/octocat"}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"email":"secondary@example.com","primary":false,"verified":true},
			{"email":"octocat@example.com","primary":true,"verified":true}
		]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gh := Github("id", "secret")
	gh.api = srv.URL

	details, err := gh.FetchUserData(context.Background(), srv.Client())
	require.NoError(t, err)

	assert.Equal(t, "583231", details.ProviderAccountId)
	assert.Equal(t, "octocat@example.com", details.Email)
	assert.Equal(t, "octocat", details.Username)
	require.NotNil(t, details.AvatarUrl)
	assert.Equal(t, "https://avatars.example/octocat", *details.AvatarUrl)
}

func TestGithubRequiresPrimaryVerifiedEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login":"octocat","id":1}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"email":"octocat@example.com","primary":true,"verified":false}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gh := Github("id", "secret")
	gh.api = srv.URL

	_, err := gh.FetchUserData(context.Background(), srv.Client())
	assert.EqualError(t, err, "no primary verified email found")
}

func TestGithubStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	gh := Github("id", "secret")
	gh.api = srv.URL

	_, err := gh.FetchUserData(context.Background(), srv.Client())
	assert.ErrorContains(t, err, "status code 401")
}

func TestGoogleFetchUserData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sub":"1099","email":"jane@example.com","email_verified":true,"name":"Jane","picture":""}`))
	}))
	defer srv.Close()

	g := Google("id", "secret", "http://localhost/api/auth/google/callback")
	g.userInfo = srv.URL

	details, err := g.FetchUserData(context.Background(), srv.Client())
	require.NoError(t, err)

	assert.Equal(t, "1099", details.ProviderAccountId)
	assert.Equal(t, "jane@example.com", details.Email)
	assert.Equal(t, "Jane", details.Username)
	assert.Nil(t, details.AvatarUrl)
}

func TestGoogleUnverifiedEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sub":"1099","email":"jane@example.com","email_verified":false}`))
	}))
	defer srv.Close()

	g := Google("id", "secret", "")
	g.userInfo = srv.URL

	_, err := g.FetchUserData(context.Background(), srv.Client())
	assert.EqualError(t, err, "email not verified")
}

func TestEmailSendsThroughCallback(t *testing.T) {
	var got [2]string
	e := Email(func(_ context.Context, identifier, url string) error {
		got = [2]string{identifier, url}
		return nil
	})

	require.NoError(t, e.SendVerificationRequest(context.Background(), "a@example.com", "http://x/cb"))
	assert.Equal(t, [2]string{"a@example.com", "http://x/cb"}, got)
	assert.Equal(t, "email", e.ID())
}

func TestEmailDefaultsToLogging(t *testing.T) {
	assert.NoError(t, Email(nil).SendVerificationRequest(context.Background(), "a@example.com", "http://x/cb"))
}
