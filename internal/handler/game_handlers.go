package handler

import (
	"errors"

	"github.com/lucasnhandang/TheMillionaireGame/internal/game"
	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/monitoring"
)

func (rt *Router) handleStart(req *protocol.Request, s *session.Session) *protocol.Response {
	res, err := rt.engine.Start(s, req.OverrideSavedGame)
	if err != nil {
		return rt.gameError("start", err)
	}
	monitoring.ActiveGames.Inc()
	return protocol.OK(res)
}

func (rt *Router) handleAnswer(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.AnswerIndex == nil {
		return protocol.Error(protocol.CodeValidation, "Missing answerIndex")
	}

	res, err := rt.engine.Answer(s, uint(req.GameID), req.QuestionNumber, *req.AnswerIndex)
	if err != nil {
		return rt.gameError("answer", err)
	}
	if res.GameOver {
		monitoring.ActiveGames.Dec()
	}
	if res.TimedOut {
		return &protocol.Response{
			ResponseCode: protocol.CodeTimeout,
			Data:         res,
			Message:      "Time is up, game over at the safe checkpoint",
		}
	}
	return protocol.OK(res)
}

func (rt *Router) handleLifeline(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.LifelineType == "" {
		return protocol.Error(protocol.CodeValidation, "Missing lifelineType")
	}

	res, err := rt.engine.Lifeline(s, uint(req.GameID), req.QuestionNumber, req.LifelineType)
	if err != nil {
		return rt.gameError("lifeline", err)
	}
	return protocol.OK(res)
}

func (rt *Router) handleGiveUp(req *protocol.Request, s *session.Session) *protocol.Response {
	res, err := rt.engine.GiveUp(s, uint(req.GameID), req.QuestionNumber)
	if err != nil {
		return rt.gameError("give_up", err)
	}
	monitoring.ActiveGames.Dec()
	return protocol.OK(res)
}

func (rt *Router) handleResume(req *protocol.Request, s *session.Session) *protocol.Response {
	res, err := rt.engine.Resume(s)
	if err != nil {
		return rt.gameError("resume", err)
	}
	monitoring.ActiveGames.Inc()
	return protocol.OK(res)
}

func (rt *Router) handleLeaveGame(req *protocol.Request, s *session.Session) *protocol.Response {
	if err := rt.engine.Leave(s); err != nil {
		return rt.gameError("leave_game", err)
	}
	monitoring.ActiveGames.Dec()
	return protocol.OK(map[string]string{
		"message": "Progress saved, resume any time",
	})
}

// gameError maps the engine's sentinel errors to protocol codes; anything
// unrecognized is a storage or internal failure.
func (rt *Router) gameError(op string, err error) *protocol.Response {
	switch {
	case errors.Is(err, game.ErrAlreadyInGame):
		return protocol.Error(protocol.CodeAlreadyInGame, "Already in an active game")
	case errors.Is(err, game.ErrNotInGame):
		return protocol.Error(protocol.CodeNotInGame, "No active game")
	case errors.Is(err, game.ErrSavedGameExists):
		return protocol.Error(protocol.CodePrecondition,
			"A saved game exists, resume it or start with overrideSavedGame")
	case errors.Is(err, game.ErrNoSavedGame):
		return protocol.Error(protocol.CodeNotFound, "No saved game to resume")
	case errors.Is(err, game.ErrGameMismatch):
		return protocol.Error(protocol.CodePrecondition, "gameId does not match the active game")
	case errors.Is(err, game.ErrStaleQuestion):
		return protocol.Error(protocol.CodeValidation, "questionNumber does not match the current question")
	case errors.Is(err, game.ErrInvalidAnswer):
		return protocol.Error(protocol.CodeValidation, "answerIndex must be between 0 and 3")
	case errors.Is(err, game.ErrInvalidLifeline):
		return protocol.Error(protocol.CodeValidation, "lifelineType must be 5050, PHONE or AUDIENCE")
	case errors.Is(err, game.ErrLifelineUsed):
		return protocol.Error(protocol.CodeLifelineUsed, "Lifeline already used this game")
	default:
		return internalError(rt.log, op, err)
	}
}
