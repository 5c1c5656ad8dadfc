package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSigner_IssueAndParse(t *testing.T) {
	signer := NewSessionSigner("secret", time.Hour)
	token, claims, err := signer.Issue("sunflower")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sunflower", parsed.Identity)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestSessionSigner_RejectsForeignAndExpired(t *testing.T) {
	signer := NewSessionSigner("secret", time.Hour)
	token, _, err := signer.Issue("sunflower")
	require.NoError(t, err)

	_, err = NewSessionSigner("other", time.Hour).Parse(token)
	assert.Error(t, err)

	later := NewSessionSigner("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Parse(token)
	assert.Error(t, err)

	_, err = signer.Parse("not-a-token")
	assert.Error(t, err)
}
