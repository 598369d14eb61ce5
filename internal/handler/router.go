// Package handler routes decoded request envelopes to their handlers,
// enforcing the auth gate in front of every protected type.
package handler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/lucasnhandang/TheMillionaireGame/internal/auth"
	"github.com/lucasnhandang/TheMillionaireGame/internal/game"
	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/monitoring"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/tracing"
)

// Pusher delivers a server-initiated message to another live connection.
// The TCP server implements it; a nil pusher disables pushes.
type Pusher interface {
	Push(connID uint64, resp *protocol.Response) bool
}

type Router struct {
	gate     *auth.Gate
	registry *session.Registry
	engine   *game.Engine
	store    *store.Store
	pusher   Pusher
	log      *zap.Logger
}

func NewRouter(gate *auth.Gate, registry *session.Registry, engine *game.Engine,
	st *store.Store, log *zap.Logger) *Router {
	return &Router{
		gate:     gate,
		registry: registry,
		engine:   engine,
		store:    st,
		log:      log,
	}
}

// SetPusher wires the server back in after construction; the server itself
// depends on the router, so this closes the loop.
func (rt *Router) SetPusher(p Pusher) {
	rt.pusher = p
}

// Dispatch decodes one wire message and runs its handler. It never holds
// the registry lock across a handler call. The returned response is never
// nil.
func (rt *Router) Dispatch(ctx context.Context, raw string, connID uint64) *protocol.Response {
	req, err := protocol.Decode(raw)
	if err != nil {
		return protocol.Error(protocol.CodeBadRequest, "Invalid JSON format")
	}
	if req.RequestType == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing requestType")
	}

	s, ok := rt.registry.Get(connID)
	if !ok {
		return protocol.Error(protocol.CodeInternal, "Client session not found")
	}

	_, span := tracing.Tracer.Start(ctx, req.RequestType)
	span.SetAttributes(attribute.Int64("conn.id", int64(connID)))
	defer span.End()

	resp := rt.route(req, s)
	monitoring.ObserveRequest(req.RequestType, resp.ResponseCode)
	return resp
}

func (rt *Router) route(req *protocol.Request, s *session.Session) *protocol.Response {
	// LOGIN, REGISTER and the liveness probes are the only types that
	// bypass the auth gate.
	switch req.RequestType {
	case protocol.TypeLogin:
		return rt.handleLogin(req, s)
	case protocol.TypeRegister:
		return rt.handleRegister(req, s)
	case protocol.TypeConnection:
		return rt.handleConnection(req, s)
	case protocol.TypePing:
		return rt.handlePing(req, s)
	}

	if _, ok := rt.gate.RequireAuth(req, s); !ok {
		return protocol.Error(protocol.CodeUnauthenticated, "Not authenticated or invalid authToken")
	}

	switch req.RequestType {
	case protocol.TypeLogout:
		return rt.handleLogout(req, s)

	case protocol.TypeStart:
		return rt.handleStart(req, s)
	case protocol.TypeAnswer:
		return rt.handleAnswer(req, s)
	case protocol.TypeLifeline:
		return rt.handleLifeline(req, s)
	case protocol.TypeGiveUp:
		return rt.handleGiveUp(req, s)
	case protocol.TypeResume:
		return rt.handleResume(req, s)
	case protocol.TypeLeaveGame:
		return rt.handleLeaveGame(req, s)

	case protocol.TypeLeaderboard:
		return rt.handleLeaderboard(req, s)
	case protocol.TypeFriendStatus:
		return rt.handleFriendStatus(req, s)
	case protocol.TypeAddFriend:
		return rt.handleAddFriend(req, s)
	case protocol.TypeAcceptFriend:
		return rt.handleAcceptFriend(req, s)
	case protocol.TypeDeclineFriend:
		return rt.handleDeclineFriend(req, s)
	case protocol.TypeFriendReqList:
		return rt.handleFriendReqList(req, s)
	case protocol.TypeDelFriend:
		return rt.handleDelFriend(req, s)
	case protocol.TypeChat:
		return rt.handleChat(req, s)

	case protocol.TypeUserInfo:
		return rt.handleUserInfo(req, s)
	case protocol.TypeViewHistory:
		return rt.handleViewHistory(req, s)
	case protocol.TypeChangePass:
		return rt.handleChangePass(req, s)

	case protocol.TypeAddQues:
		return rt.handleAddQues(req, s)
	case protocol.TypeChangeQues:
		return rt.handleChangeQues(req, s)
	case protocol.TypeViewQues:
		return rt.handleViewQues(req, s)
	case protocol.TypeDelQues:
		return rt.handleDelQues(req, s)
	case protocol.TypeBanUser:
		return rt.handleBanUser(req, s)

	default:
		return protocol.Error(protocol.CodeUnknownType, "Unknown request type")
	}
}

// requireAdmin gates the admin-only handlers.
func requireAdmin(s *session.Session) *protocol.Response {
	if s.Role != model.RoleAdmin {
		return protocol.Error(protocol.CodeForbidden, "Access forbidden - not an admin account")
	}
	return nil
}

func internalError(log *zap.Logger, op string, err error) *protocol.Response {
	log.Error("handler failed", zap.String("op", op), zap.Error(err))
	return protocol.Error(protocol.CodeInternal, "Internal server error")
}
