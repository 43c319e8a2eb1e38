package authstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		path string
		want any
	}{
		{"/", unmatched{}},
		{"/api/authors", unmatched{}},
		{"/api/auth", notFound{}},
		{"/api/auth/", notFound{}},
		{"/api/auth/providers", providers{}},
		{"/api/auth/sign-out", signOut{}},
		{"/api/auth/csrf", csrf{}},
		{"/api/auth/session", session{}},
		{"/api/auth/google", provider{"google"}},
		{"/api/auth/google/callback", callback{"google"}},
		{"/api/auth//callback", notFound{}},
		{"/api/auth/google/other", notFound{}},
		{"/api/auth/google/callback/extra", notFound{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePath(tt.path, "/api/auth"))
		})
	}
}
