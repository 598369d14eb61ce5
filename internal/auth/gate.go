// Package auth mints, binds and validates the bearer tokens that tie an
// authenticated user to one TCP connection.
package auth

import (
	"math/rand"
	"sync"
	"time"
	"unicode"

	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
)

const tokenLength = 32

const hexDigits = "0123456789abcdef"

// Gate owns the token maps. A token is bound 1:1 to the connection it was
// issued on; presenting it from any other connection fails validation.
type Gate struct {
	mu        sync.Mutex
	tokenConn map[string]uint64
	userToken map[string]string
	rng       *rand.Rand
}

func NewGate() *Gate {
	return &Gate{
		tokenConn: make(map[string]uint64),
		userToken: make(map[string]string),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateToken produces a 32-hex-character identifier. Uniform RNG, not a
// cryptographic guarantee: the token gates a game session, not funds.
func (g *Gate) GenerateToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := make([]byte, tokenLength)
	for i := range b {
		b[i] = hexDigits[g.rng.Intn(len(hexDigits))]
	}
	return string(b)
}

// RegisterToken binds token to the connection it was minted on. A second
// login for the same user revokes the previous token, so one account is
// never authenticated on two connections at once.
func (g *Gate) RegisterToken(token string, connID uint64, username string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.userToken[username]; ok {
		delete(g.tokenConn, old)
	}
	g.tokenConn[token] = connID
	g.userToken[username] = token
}

// TokenOf returns the live token for username, or "" if none.
func (g *Gate) TokenOf(username string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userToken[username]
}

// UnregisterToken revokes the binding. Called once per logout/disconnect.
// The user entry is only cleared when it still points at this token, so a
// superseded connection going away cannot wipe the newer login's binding.
func (g *Gate) UnregisterToken(token, username string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token != "" {
		delete(g.tokenConn, token)
	}
	if username != "" && g.userToken[username] == token {
		delete(g.userToken, username)
	}
}

// ValidateToken succeeds iff token is registered and bound to connID.
func (g *Gate) ValidateToken(token string, connID uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	bound, ok := g.tokenConn[token]
	return ok && bound == connID
}

// RequireAuth accepts a request only if its bearer token validates against
// the global map for this connection and matches the token stored on the
// session itself. The double check closes the window where a stale session
// token outlives a re-login elsewhere. Returns the username on success.
func (g *Gate) RequireAuth(req *protocol.Request, s *session.Session) (string, bool) {
	if req.AuthToken == "" {
		return "", false
	}
	if !g.ValidateToken(req.AuthToken, s.ConnID) {
		return "", false
	}
	if s.AuthToken != req.AuthToken {
		return "", false
	}
	return s.Username, true
}

// ValidatePasswordStrength requires length >= 8 with at least one
// uppercase letter, one lowercase letter and one digit.
func ValidatePasswordStrength(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}
