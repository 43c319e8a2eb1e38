package authstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserPatchWithoutID(t *testing.T) {
	name := "x"
	err := (&UserPatch{Name: &name}).Validate()

	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestUserPatchEmpty(t *testing.T) {
	assert.True(t, UserPatch{ID: "1"}.Empty())

	role := "admin"
	assert.False(t, UserPatch{ID: "1", Role: &role}.Empty())
}

func TestSessionComplete(t *testing.T) {
	s := &Session{ID: "1", SessionToken: "t", UserID: "u", Expires: time.Now()}
	assert.True(t, s.Complete())

	s.UserID = ""
	assert.False(t, s.Complete())
}

func TestVerificationTokenRequiresExpiry(t *testing.T) {
	err := (&VerificationToken{Identifier: "a@b.c", Token: "t"}).Validate()

	assert.ErrorIs(t, err, ErrInvariantViolation)
}
