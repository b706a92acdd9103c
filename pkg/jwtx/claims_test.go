package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/blogd/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id := jwtx.Identity{UserID: "01HZY3Q6V6B7W1QK3K0M7J8N9P", Username: "alice"}

	c := jwtx.NewClaims(jwtx.KindAccess, id, "blogd", "jti-1", time.Hour, now)

	require.Equal(t, "blogd", c.Issuer)
	require.Equal(t, id.UserID, c.Subject)
	require.Equal(t, "alice", c.Username)
	require.Equal(t, jwtx.KindAccess, c.Kind)
	require.Equal(t, "jti-1", c.ID)
	require.Equal(t, now, c.IssuedAt.Time)
	require.Equal(t, now.Add(time.Hour), c.Expiry())
	require.Equal(t, id, c.Identity())
}

func TestExpiryWithoutExp(t *testing.T) {
	var c jwtx.Claims
	require.True(t, c.Expiry().IsZero())
}
