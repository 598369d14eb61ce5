package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
)

func TestGenerateTokenShape(t *testing.T) {
	g := NewGate()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := g.GenerateToken()
		require.Len(t, token, 32)
		for _, c := range token {
			assert.Contains(t, hexDigits, string(c))
		}
		assert.False(t, seen[token], "token collision")
		seen[token] = true
	}
}

func TestValidateTokenBoundToConnection(t *testing.T) {
	g := NewGate()
	token := g.GenerateToken()
	g.RegisterToken(token, 7, "alice")

	assert.True(t, g.ValidateToken(token, 7))
	// Same token from another connection is rejected.
	assert.False(t, g.ValidateToken(token, 8))
	assert.False(t, g.ValidateToken("deadbeef", 7))
}

func TestUnregisterTokenRevokes(t *testing.T) {
	g := NewGate()
	token := g.GenerateToken()
	g.RegisterToken(token, 7, "alice")

	g.UnregisterToken(token, "alice")
	assert.False(t, g.ValidateToken(token, 7))
	assert.Empty(t, g.TokenOf("alice"))
}

func TestUnregisterStaleTokenKeepsNewerBinding(t *testing.T) {
	g := NewGate()
	first := g.GenerateToken()
	g.RegisterToken(first, 1, "alice")
	second := g.GenerateToken()
	g.RegisterToken(second, 2, "alice")

	// The superseded connection tears down last. Its revoked token must
	// not take the live login's binding with it.
	g.UnregisterToken(first, "alice")
	assert.Equal(t, second, g.TokenOf("alice"))
	assert.True(t, g.ValidateToken(second, 2))

	// A third login can still revoke the second token.
	third := g.GenerateToken()
	g.RegisterToken(third, 3, "alice")
	assert.False(t, g.ValidateToken(second, 2))
	assert.True(t, g.ValidateToken(third, 3))
}

func TestSecondLoginRevokesFirstToken(t *testing.T) {
	g := NewGate()
	first := g.GenerateToken()
	g.RegisterToken(first, 1, "alice")

	second := g.GenerateToken()
	g.RegisterToken(second, 2, "alice")

	assert.False(t, g.ValidateToken(first, 1))
	assert.True(t, g.ValidateToken(second, 2))
	assert.Equal(t, second, g.TokenOf("alice"))
}

func TestRequireAuth(t *testing.T) {
	g := NewGate()
	token := g.GenerateToken()
	g.RegisterToken(token, 5, "alice")

	s := &session.Session{ConnID: 5, Authenticated: true, AuthToken: token, Username: "alice"}

	username, ok := g.RequireAuth(&protocol.Request{AuthToken: token}, s)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	_, ok = g.RequireAuth(&protocol.Request{}, s)
	assert.False(t, ok)

	_, ok = g.RequireAuth(&protocol.Request{AuthToken: "wrong"}, s)
	assert.False(t, ok)

	// Token valid globally but stale on the session.
	s.AuthToken = "rotated"
	_, ok = g.RequireAuth(&protocol.Request{AuthToken: token}, s)
	assert.False(t, ok)
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"Password1", true},
		{"Str0ngEnough", true},
		{"weakpass", false},   // no upper, no digit
		{"ALLUPPER1", false},  // no lower
		{"alllower1", false},  // no upper
		{"NoDigitsHere", false},
		{"Sh0rt", false}, // too short
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, ValidatePasswordStrength(tc.password), "password %q", tc.password)
	}
}
