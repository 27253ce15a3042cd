package authsecret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, Verify(hash, "s3cret"))
	assert.False(t, Verify(hash, "wrong"))
	assert.False(t, Verify("not-a-bcrypt-hash", "s3cret"))
}
