package handler

import (
	"errors"

	"go.uber.org/zap"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
)

// adminQuestionView exposes the correct answer, which player-facing views
// never do.
type adminQuestionView struct {
	QuestionID    uint     `json:"questionId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Level         int      `json:"level"`
	UpdatedBy     string   `json:"updatedBy,omitempty"`
}

func adminView(q *model.Question) adminQuestionView {
	opts := q.Options()
	return adminQuestionView{
		QuestionID:    q.ID,
		Text:          q.Text,
		Options:       opts[:],
		CorrectAnswer: q.CorrectAnswer,
		Level:         q.Level,
		UpdatedBy:     q.UpdatedBy,
	}
}

func validQuestionFields(text string, options []string, correctAnswer, level *int) string {
	if text == "" {
		return "Missing question text"
	}
	if len(options) != 4 {
		return "Exactly 4 options required"
	}
	for _, o := range options {
		if o == "" {
			return "Options must be non-empty"
		}
	}
	if correctAnswer == nil || *correctAnswer < 0 || *correctAnswer > 3 {
		return "correctAnswer must be between 0 and 3"
	}
	if level == nil || *level < 0 || *level > 2 {
		return "level must be between 0 and 2"
	}
	return ""
}

func (rt *Router) handleAddQues(req *protocol.Request, s *session.Session) *protocol.Response {
	if resp := requireAdmin(s); resp != nil {
		return resp
	}
	if msg := validQuestionFields(req.Question, req.Options, req.CorrectAnswer, req.Level); msg != "" {
		return protocol.Error(protocol.CodeValidation, msg)
	}

	q := &model.Question{
		Text:          req.Question,
		OptionA:       req.Options[0],
		OptionB:       req.Options[1],
		OptionC:       req.Options[2],
		OptionD:       req.Options[3],
		CorrectAnswer: *req.CorrectAnswer,
		Level:         *req.Level,
		Active:        true,
		UpdatedBy:     s.Username,
	}
	if err := rt.store.Questions.Create(q); err != nil {
		return internalError(rt.log, "add_ques", err)
	}

	rt.log.Info("question added",
		zap.Uint("questionId", q.ID), zap.String("admin", s.Username))
	return protocol.Created(map[string]interface{}{"questionId": q.ID})
}

func (rt *Router) handleChangeQues(req *protocol.Request, s *session.Session) *protocol.Response {
	if resp := requireAdmin(s); resp != nil {
		return resp
	}
	if req.QuestionID <= 0 {
		return protocol.Error(protocol.CodeValidation, "Missing questionId")
	}

	q, err := rt.store.Questions.Find(uint(req.QuestionID))
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Error(protocol.CodeNotFound, "Question not found")
	}
	if err != nil {
		return internalError(rt.log, "change_ques", err)
	}

	// Partial update: only the supplied fields change.
	if req.Question != "" {
		q.Text = req.Question
	}
	if len(req.Options) > 0 {
		if len(req.Options) != 4 {
			return protocol.Error(protocol.CodeValidation, "Exactly 4 options required")
		}
		for _, o := range req.Options {
			if o == "" {
				return protocol.Error(protocol.CodeValidation, "Options must be non-empty")
			}
		}
		q.OptionA, q.OptionB, q.OptionC, q.OptionD =
			req.Options[0], req.Options[1], req.Options[2], req.Options[3]
	}
	if req.CorrectAnswer != nil {
		if *req.CorrectAnswer < 0 || *req.CorrectAnswer > 3 {
			return protocol.Error(protocol.CodeValidation, "correctAnswer must be between 0 and 3")
		}
		q.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Level != nil {
		if *req.Level < 0 || *req.Level > 2 {
			return protocol.Error(protocol.CodeValidation, "level must be between 0 and 2")
		}
		q.Level = *req.Level
	}
	q.UpdatedBy = s.Username

	if err := rt.store.Questions.Update(q); err != nil {
		return internalError(rt.log, "change_ques", err)
	}

	rt.log.Info("question updated",
		zap.Uint("questionId", q.ID), zap.String("admin", s.Username))
	return protocol.OK(adminView(q))
}

func (rt *Router) handleViewQues(req *protocol.Request, s *session.Session) *protocol.Response {
	if resp := requireAdmin(s); resp != nil {
		return resp
	}

	level := -1
	if req.Level != nil {
		if *req.Level < 0 || *req.Level > 2 {
			return protocol.Error(protocol.CodeValidation, "level must be between 0 and 2")
		}
		level = *req.Level
	}
	page, limit, ok := pagination(req.Page, req.Limit)
	if !ok {
		return protocol.Error(protocol.CodeValidation, "page and limit must be positive, limit at most 100")
	}

	questions, total, err := rt.store.Questions.List(level, page, limit)
	if err != nil {
		return internalError(rt.log, "view_ques", err)
	}

	views := make([]adminQuestionView, 0, len(questions))
	for i := range questions {
		views = append(views, adminView(&questions[i]))
	}
	return protocol.OK(map[string]interface{}{
		"page":      page,
		"limit":     limit,
		"total":     total,
		"questions": views,
	})
}

func (rt *Router) handleDelQues(req *protocol.Request, s *session.Session) *protocol.Response {
	if resp := requireAdmin(s); resp != nil {
		return resp
	}
	if req.QuestionID <= 0 {
		return protocol.Error(protocol.CodeValidation, "Missing questionId")
	}

	if err := rt.store.Questions.Delete(uint(req.QuestionID)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return protocol.Error(protocol.CodeNotFound, "Question not found")
		}
		return internalError(rt.log, "del_ques", err)
	}

	rt.log.Info("question deleted",
		zap.Int("questionId", req.QuestionID), zap.String("admin", s.Username))
	return protocol.OK(map[string]string{"message": "Question deleted"})
}

func (rt *Router) handleBanUser(req *protocol.Request, s *session.Session) *protocol.Response {
	if resp := requireAdmin(s); resp != nil {
		return resp
	}
	if req.Username == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing username")
	}
	if req.Username == s.Username {
		return protocol.Error(protocol.CodeValidation, "Cannot ban yourself")
	}

	user, err := rt.store.Users.FindByUsername(req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Error(protocol.CodeNotFound, "User not found")
	}
	if err != nil {
		return internalError(rt.log, "ban_user", err)
	}
	if user.Banned {
		return protocol.Error(protocol.CodeConflict, "User is already banned")
	}

	if err := rt.store.Users.Ban(req.Username, req.Reason); err != nil {
		return internalError(rt.log, "ban_user", err)
	}

	// Revoke the live session immediately. The banned user's next request
	// fails authentication.
	if token := rt.gate.TokenOf(req.Username); token != "" {
		rt.push(req.Username, map[string]string{
			"type":    "BANNED",
			"message": "Your account has been banned",
		})
		rt.gate.UnregisterToken(token, req.Username)
		if connID, ok := rt.registry.ConnIDOf(req.Username); ok {
			rt.registry.UnbindUser(req.Username, connID)
		}
	}

	rt.log.Warn("user banned",
		zap.String("username", req.Username),
		zap.String("admin", s.Username),
		zap.String("reason", req.Reason))
	return protocol.OK(map[string]string{"message": "User banned"})
}
