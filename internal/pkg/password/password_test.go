package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndMatches(t *testing.T) {
	h, err := Hash("Password1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Password1!", h)

	ok, err := Matches(h, "Password1!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(h, "password1!")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatches_MalformedHash(t *testing.T) {
	_, err := Matches("not-a-hash", "x")
	assert.Error(t, err)
}
