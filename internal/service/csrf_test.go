package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
)

func TestEnsureCSRFToken_StableWithinSession(t *testing.T) {
	sess := &domainauth.Session{ID: "s1"}

	tok1, err := EnsureCSRFToken(sess)
	require.NoError(t, err)
	assert.NotEmpty(t, tok1)

	tok2, err := EnsureCSRFToken(sess)
	require.NoError(t, err)
	assert.Equal(t, tok1, tok2, "token is not rotated per request")
}

func TestEnsureCSRFToken_DistinctAcrossSessions(t *testing.T) {
	a := &domainauth.Session{ID: "a"}
	b := &domainauth.Session{ID: "b"}

	tokA, err := EnsureCSRFToken(a)
	require.NoError(t, err)
	tokB, err := EnsureCSRFToken(b)
	require.NoError(t, err)

	assert.NotEqual(t, tokA, tokB)
}

func TestValidateCSRFToken(t *testing.T) {
	sess := &domainauth.Session{ID: "s1"}
	tok, err := EnsureCSRFToken(sess)
	require.NoError(t, err)

	assert.True(t, ValidateCSRFToken(sess, tok))
	assert.False(t, ValidateCSRFToken(sess, "forged"))
	assert.False(t, ValidateCSRFToken(sess, ""))
	assert.False(t, ValidateCSRFToken(nil, tok))
	assert.False(t, ValidateCSRFToken(&domainauth.Session{ID: "fresh"}, tok),
		"a session without a stored token rejects everything")
}
