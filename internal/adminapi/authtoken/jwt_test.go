package authtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	svc, err := NewService("test-secret", "intervaldb-admin", time.Hour)
	require.NoError(t, err)

	token, err := svc.Issue("operator@example", "operator")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "operator@example", claims.Subject)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, "intervaldb-admin", claims.Issuer)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer, err := NewService("secret-a", "intervaldb-admin", time.Hour)
	require.NoError(t, err)
	verifier, err := NewService("secret-b", "intervaldb-admin", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("op", "operator")
	require.NoError(t, err)
	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc, err := NewService("test-secret", "intervaldb-admin", time.Nanosecond)
	require.NoError(t, err)
	// a sub-millisecond expiration is already in the past by validation time
	token, err := svc.Issue("op", "operator")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService("", "x", time.Hour)
	assert.Error(t, err)
}
