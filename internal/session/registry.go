// Package session holds the authoritative table of live per-connection
// state. Session fields are mutated only by the connection's owning
// goroutine; everything shared across connections goes through the
// Registry's lock.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
)

// Session is the mutable per-connection record. It is created on connect
// and destroyed on disconnect. Apart from Registry bookkeeping, only the
// owning connection goroutine may touch its fields.
type Session struct {
	ConnID      uint64
	RemoteAddr  string
	ConnectedAt time.Time

	Authenticated bool
	AuthToken     string
	Username      string
	Role          model.UserRole

	InGame         bool
	GameID         uint
	QuestionNumber int // 1-15, 16 = just won
	Level          int // 0-2
	Prize          int64
	Score          int
	UsedLifelines  map[string]bool
	Question       *model.Question // current question, correct index included
}

// LifelinesUsed returns how many lifelines were consumed this game.
func (s *Session) LifelinesUsed() int {
	return len(s.UsedLifelines)
}

// ResetGame clears all in-game state.
func (s *Session) ResetGame() {
	s.InGame = false
	s.GameID = 0
	s.QuestionNumber = 0
	s.Level = 0
	s.Prize = 0
	s.Score = 0
	s.UsedLifelines = nil
	s.Question = nil
}

type presence struct {
	connID uint64
	inGame bool
}

// Registry is the lock-guarded map of live sessions plus the online
// presence set. All mutations are atomic with respect to each other.
type Registry struct {
	mu         sync.Mutex
	sessions   map[uint64]*Session
	online     map[string]*presence
	lastActive map[uint64]time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[uint64]*Session),
		online:     make(map[string]*presence),
		lastActive: make(map[uint64]time.Time),
	}
}

func (r *Registry) Create(connID uint64, remoteAddr string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Session{
		ConnID:      connID,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
	}
	r.sessions[connID] = s
	r.lastActive[connID] = s.ConnectedAt
	return s
}

// Get returns the live session for connID. The pointer must only be used
// by the goroutine owning that connection; cross-connection queries go
// through the presence methods instead.
func (r *Registry) Get(connID uint64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	return s, ok
}

// Remove drops the session and its presence entry, covering abrupt
// disconnects with no clean logout.
func (r *Registry) Remove(connID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return
	}
	if s.Username != "" {
		if p, ok := r.online[s.Username]; ok && p.connID == connID {
			delete(r.online, s.Username)
		}
	}
	delete(r.sessions, connID)
	delete(r.lastActive, connID)
}

func (r *Registry) Touch(connID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[connID]; ok {
		r.lastActive[connID] = time.Now()
	}
}

// BindUser marks username online on connID after a successful login.
func (r *Registry) BindUser(connID uint64, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[username] = &presence{connID: connID}
}

// UnbindUser drops the presence entry, but only while it still belongs to
// connID. A re-login elsewhere moves the entry to the new connection; the
// stale connection's cleanup must not take the fresh binding with it.
func (r *Registry) UnbindUser(username string, connID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.online[username]; ok && p.connID == connID {
		delete(r.online, username)
	}
}

// SetInGame updates the cross-connection view of a user's game state.
// The owning goroutine calls this alongside mutating its own session.
func (r *Registry) SetInGame(username string, inGame bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.online[username]; ok {
		p.inGame = inGame
	}
}

// ConnIDOf resolves the connection a user is currently online on, for
// server-initiated pushes such as chat delivery.
func (r *Registry) ConnIDOf(username string) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.online[username]
	if !ok {
		return 0, false
	}
	return p.connID, true
}

func (r *Registry) IsOnline(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.online[username]
	return ok
}

// UserStatus reports "offline", "online" or "in_game" for username.
func (r *Registry) UserStatus(username string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.online[username]
	if !ok {
		return "offline"
	}
	if p.inGame {
		return "in_game"
	}
	return "online"
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// WaitUntilEmpty blocks until every session is gone or ctx expires.
// Used by shutdown to drain connected workers.
func (r *Registry) WaitUntilEmpty(ctx context.Context) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		if r.Count() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
