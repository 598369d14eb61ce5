package handler

import (
	"time"

	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
)

// handlePing is the liveness probe. It works before authentication so
// clients can keep an idle pre-login connection open.
func (rt *Router) handlePing(req *protocol.Request, s *session.Session) *protocol.Response {
	return protocol.OK(map[string]string{"message": "PONG"})
}

// handleConnection confirms the session is alive and reports server time,
// used by clients to sync their countdown display.
func (rt *Router) handleConnection(req *protocol.Request, s *session.Session) *protocol.Response {
	return protocol.OK(map[string]interface{}{
		"status":      "connected",
		"serverTime":  time.Now().UTC().Format(time.RFC3339),
		"connectedAt": s.ConnectedAt.UTC().Format(time.RFC3339),
	})
}
