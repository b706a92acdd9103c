package domain_test

import (
	"strings"
	"testing"

	"github.com/aussiebroadwan/blogd/internal/blog/domain"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"alice", "alice", true},
		{"  alice  ", "alice", true},
		{"al", "al", false},
		{"abc", "abc", false},
		{"abcd", "abcd", true},
		{strings.Repeat("a", 32), strings.Repeat("a", 32), true},
		{strings.Repeat("a", 33), strings.Repeat("a", 33), false},
		{"jo.el_v-2", "jo.el_v-2", true},
		{"bad name", "bad name", false},
		{"<script>", "<script>", false},
		{"łukasz", "łukasz", true},
	}
	for _, tt := range tests {
		got, ok := domain.NormalizeUsername(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestValidPassword(t *testing.T) {
	require.False(t, domain.ValidPassword("short"))
	require.True(t, domain.ValidPassword("correct horse"))
	require.False(t, domain.ValidPassword(strings.Repeat("x", 257)))
}
