package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBlacklist_Memory(t *testing.T) {
	bl := NewTokenBlacklist(nil)
	ctx := context.Background()

	assert.False(t, bl.IsRevoked(ctx, "a"))
	bl.Revoke(ctx, "a", time.Now().Add(time.Hour))
	assert.True(t, bl.IsRevoked(ctx, "a"))
	assert.False(t, bl.IsRevoked(ctx, "b"))

	// Already expired tokens need no entry.
	bl.Revoke(ctx, "c", time.Now().Add(-time.Minute))
	assert.False(t, bl.IsRevoked(ctx, "c"))
}
