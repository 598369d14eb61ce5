package handler

import (
	"time"

	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
)

const historyLimit = 20

func (rt *Router) handleUserInfo(req *protocol.Request, s *session.Session) *protocol.Response {
	user, err := rt.store.Users.FindByUsername(s.Username)
	if err != nil {
		return internalError(rt.log, "user_info", err)
	}
	stats, err := rt.store.Games.Stats(s.Username)
	if err != nil {
		return internalError(rt.log, "user_info", err)
	}

	return protocol.OK(map[string]interface{}{
		"username":            user.Username,
		"role":                string(user.Role),
		"memberSince":         user.CreatedAt.UTC().Format(time.RFC3339),
		"lastLogin":           user.LastLogin.UTC().Format(time.RFC3339),
		"totalGames":          stats.TotalGames,
		"highestPrize":        stats.HighestPrize,
		"finalQuestionNumber": stats.FinalQuestionNumber,
		"totalScore":          stats.TotalScore,
	})
}

func (rt *Router) handleViewHistory(req *protocol.Request, s *session.Session) *protocol.Response {
	limit := req.Limit
	if limit <= 0 {
		limit = historyLimit
	}
	if limit > maxPageLimit {
		return protocol.Error(protocol.CodeValidation, "limit must be at most 100")
	}

	games, err := rt.store.Games.History(s.Username, limit)
	if err != nil {
		return internalError(rt.log, "view_history", err)
	}

	type historyRow struct {
		GameID         uint   `json:"gameId"`
		Status         string `json:"status"`
		QuestionNumber int    `json:"questionNumber"`
		Score          int    `json:"totalScore"`
		FinalPrize     int64  `json:"finalPrize"`
		PlayedAt       string `json:"playedAt"`
		EndedAt        string `json:"endedAt,omitempty"`
	}
	rows := make([]historyRow, 0, len(games))
	for _, g := range games {
		row := historyRow{
			GameID:         g.ID,
			Status:         string(g.Status),
			QuestionNumber: g.QuestionNumber,
			Score:          g.Score,
			FinalPrize:     g.FinalPrize,
			PlayedAt:       g.CreatedAt.UTC().Format(time.RFC3339),
		}
		if g.EndedAt != nil {
			row.EndedAt = g.EndedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}

	return protocol.OK(map[string]interface{}{"games": rows})
}
