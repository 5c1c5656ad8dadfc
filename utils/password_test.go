package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSecret(t *testing.T) {
	assert.True(t, MatchSecret("plain", "plain"))
	assert.False(t, MatchSecret("plain", "Plain"))

	hash, err := HashSecret("s3cret")
	require.NoError(t, err)
	assert.True(t, MatchSecret(hash, "s3cret"))
	assert.False(t, MatchSecret(hash, "wrong"))
	assert.False(t, MatchSecret(hash, hash))
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "happy", SanitizeLabel("  <script>alert(1)</script>happy "))
	assert.Equal(t, "sleepy", SanitizeLabel("<b>sleepy</b>"))
	assert.Equal(t, "", SanitizeLabel("   "))
}
