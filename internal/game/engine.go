// Package game implements the 15-question ladder state machine:
// progression, per-question timeout, one-shot lifelines, scoring and
// safe-checkpoint payouts.
package game

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
)

var (
	ErrAlreadyInGame   = errors.New("already in a game")
	ErrNotInGame       = errors.New("not in a game")
	ErrSavedGameExists = errors.New("a saved game exists")
	ErrNoSavedGame     = errors.New("no saved game found")
	ErrGameMismatch    = errors.New("gameId doesn't match active game")
	ErrStaleQuestion   = errors.New("question number mismatch")
	ErrInvalidAnswer   = errors.New("answerIndex must be 0-3")
	ErrInvalidLifeline = errors.New("invalid lifeline type")
	ErrLifelineUsed    = errors.New("lifeline already used")
)

// Presence is the slice of the session registry the engine needs: keeping
// the cross-connection in-game flag in step with the owning session.
type Presence interface {
	SetInGame(username string, inGame bool)
}

// Engine drives one session's game through
// NotStarted -> Active(1..15) -> Won | Lost | Quit. Terminal states are
// sticky; every structural validation failure leaves state untouched.
type Engine struct {
	games       store.Games
	questions   store.Questions
	leaderboard store.Leaderboard
	presence    Presence
	timer       *Timer
	oracle      *Oracle
	saveTTL     time.Duration
	log         *zap.Logger
}

func NewEngine(games store.Games, questions store.Questions, leaderboard store.Leaderboard,
	presence Presence, timer *Timer, oracle *Oracle, saveTTL time.Duration, log *zap.Logger) *Engine {
	return &Engine{
		games:       games,
		questions:   questions,
		leaderboard: leaderboard,
		presence:    presence,
		timer:       timer,
		oracle:      oracle,
		saveTTL:     saveTTL,
		log:         log,
	}
}

// QuestionView is what the client is allowed to see of a question.
type QuestionView struct {
	QuestionID     uint      `json:"questionId"`
	QuestionNumber int       `json:"questionNumber"`
	Level          int       `json:"level"`
	Text           string    `json:"text"`
	Options        [4]string `json:"options"`
	TimeLimit      int       `json:"timeLimitSeconds"`
}

type StartResult struct {
	GameID   uint          `json:"gameId"`
	Prize    int64         `json:"currentPrize"`
	Question *QuestionView `json:"question"`
}

type AnswerResult struct {
	GameID       uint  `json:"gameId"`
	Correct      bool  `json:"correct"`
	TimedOut     bool  `json:"timedOut,omitempty"`
	PointsEarned int   `json:"pointsEarned"`
	TotalScore   int   `json:"totalScore"`
	Prize        int64 `json:"currentPrize"`
	GameOver     bool  `json:"gameOver"`
	Winner       bool  `json:"isWinner"`
	// Set only when the game ends.
	CorrectAnswer *int          `json:"correctAnswer,omitempty"`
	FinalPrize    int64         `json:"finalPrize,omitempty"`
	NextQuestion  *QuestionView `json:"nextQuestion,omitempty"`
}

type LifelineResult struct {
	GameID uint        `json:"gameId"`
	Type   string      `json:"lifelineType"`
	Hint   interface{} `json:"hint"`
}

type GiveUpResult struct {
	GameID              uint   `json:"gameId"`
	FinalPrize          int64  `json:"finalPrize"`
	FinalQuestionNumber int    `json:"finalQuestionNumber"`
	TotalScore          int    `json:"totalScore"`
	Message             string `json:"message"`
}

type ResumeResult struct {
	GameID   uint          `json:"gameId"`
	Prize    int64         `json:"currentPrize"`
	Score    int           `json:"totalScore"`
	Used     []string      `json:"usedLifelines"`
	Question *QuestionView `json:"question"`
}

// Start begins a new game. A live saved game blocks the start unless the
// caller explicitly overrides it, in which case the old game is closed as
// quit at its saved prize.
func (e *Engine) Start(s *session.Session, override bool) (*StartResult, error) {
	if s.InGame {
		return nil, ErrAlreadyInGame
	}

	saved, err := e.loadSaved(s.Username)
	if err != nil {
		return nil, err
	}
	if saved != nil {
		if !override {
			return nil, ErrSavedGameExists
		}
		if err := e.games.End(saved.ID, model.GameQuit, saved.Score, saved.Prize); err != nil {
			return nil, err
		}
	}

	g, err := e.games.Create(s.Username)
	if err != nil {
		return nil, err
	}

	q, err := e.drawQuestion(g.ID, FirstQuestion)
	if err != nil {
		return nil, err
	}

	s.InGame = true
	s.GameID = g.ID
	s.QuestionNumber = FirstQuestion
	s.Level = LevelForQuestion(FirstQuestion)
	s.Prize = PrizeForQuestion(FirstQuestion)
	s.Score = 0
	s.UsedLifelines = make(map[string]bool)
	s.Question = q
	e.presence.SetInGame(s.Username, true)

	if err := e.saveSnapshot(s); err != nil {
		e.log.Warn("game snapshot save failed", zap.Uint("gameId", g.ID), zap.Error(err))
	}
	e.timer.Start(g.ID)

	e.log.Info("game started",
		zap.String("username", s.Username), zap.Uint("gameId", g.ID))

	return &StartResult{
		GameID:   g.ID,
		Prize:    s.Prize,
		Question: e.view(s),
	}, nil
}

// Answer resolves the current question. An elapsed timer turns the call
// into a timeout loss at the safe-checkpoint prize regardless of the
// submitted index.
func (e *Engine) Answer(s *session.Session, gameID uint, questionNumber, answerIndex int) (*AnswerResult, error) {
	if err := e.validateTurn(s, gameID, questionNumber); err != nil {
		return nil, err
	}
	if answerIndex < 0 || answerIndex > 3 {
		return nil, ErrInvalidAnswer
	}

	if e.timer.Expired(gameID) {
		return e.endTimedOut(s)
	}

	remaining := e.timer.Remaining(gameID)
	correct := answerIndex == s.Question.CorrectAnswer
	points := 0
	if correct {
		points = QuestionScore(remaining, s.LifelinesUsed())
	}

	if err := e.games.RecordAnswer(&model.GameAnswer{
		GameID:          gameID,
		QuestionNumber:  questionNumber,
		SelectedOption:  answerIndex,
		Correct:         correct,
		ResponseSeconds: e.timer.WindowSeconds() - remaining,
	}); err != nil {
		e.log.Warn("answer record failed", zap.Uint("gameId", gameID), zap.Error(err))
	}

	if !correct {
		return e.endLost(s)
	}

	if questionNumber == LastQuestion {
		s.Score += points
		return e.endWon(s, points)
	}

	// Draw the next question before advancing anything, so a store failure
	// leaves the session exactly where it was.
	next := questionNumber + 1
	q, err := e.drawQuestion(gameID, next)
	if err != nil {
		return nil, err
	}

	s.Score += points
	s.QuestionNumber = next
	s.Level = LevelForQuestion(next)
	s.Prize = PrizeForQuestion(next)
	s.Question = q

	if err := e.saveSnapshot(s); err != nil {
		e.log.Warn("game snapshot save failed", zap.Uint("gameId", gameID), zap.Error(err))
	}
	e.timer.Start(gameID)

	return &AnswerResult{
		GameID:       gameID,
		Correct:      true,
		PointsEarned: points,
		TotalScore:   s.Score,
		Prize:        s.Prize,
		NextQuestion: e.view(s),
	}, nil
}

// Lifeline consumes one of the three one-shot aids and returns the
// oracle's payload. It never touches the score or the timer.
func (e *Engine) Lifeline(s *session.Session, gameID uint, questionNumber int, kind string) (*LifelineResult, error) {
	if err := e.validateTurn(s, gameID, questionNumber); err != nil {
		return nil, err
	}
	if kind != LifelineFiftyFifty && kind != LifelinePhone && kind != LifelineAudience {
		return nil, ErrInvalidLifeline
	}
	if s.UsedLifelines[kind] {
		return nil, ErrLifelineUsed
	}

	var hint interface{}
	switch kind {
	case LifelineFiftyFifty:
		hint = map[string][]int{"remainingOptions": e.oracle.FiftyFifty(s.Question.CorrectAnswer)}
	case LifelinePhone:
		hint = e.oracle.Phone(s.Question.CorrectAnswer)
	case LifelineAudience:
		hint = map[string]map[string]int{"percentages": e.oracle.Audience(s.Question.CorrectAnswer)}
	}

	s.UsedLifelines[kind] = true

	return &LifelineResult{GameID: gameID, Type: kind, Hint: hint}, nil
}

// GiveUp ends the game as quit with the full current prize: no checkpoint
// collapse when the player walks away.
func (e *Engine) GiveUp(s *session.Session, gameID uint, questionNumber int) (*GiveUpResult, error) {
	if err := e.validateTurn(s, gameID, questionNumber); err != nil {
		return nil, err
	}

	res := &GiveUpResult{
		GameID:              gameID,
		FinalPrize:          s.Prize,
		FinalQuestionNumber: s.QuestionNumber,
		TotalScore:          s.Score,
		Message:             "You gave up and took the prize.",
	}
	e.finish(s, model.GameQuit, s.Prize)
	return res, nil
}

// Resume reloads the latest auto-saved progress: question number, level,
// prize, score and the consumed-lifeline set. The timer restarts fresh
// for the resumed question.
func (e *Engine) Resume(s *session.Session) (*ResumeResult, error) {
	if s.InGame {
		return nil, ErrAlreadyInGame
	}

	saved, err := e.loadSaved(s.Username)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, ErrNoSavedGame
	}

	q, err := e.games.AssignedQuestion(saved.ID, saved.QuestionNumber)
	if err != nil || q == nil {
		// Assignment lost; draw a replacement at the same level.
		q, err = e.drawQuestion(saved.ID, saved.QuestionNumber)
		if err != nil {
			return nil, err
		}
	}

	s.InGame = true
	s.GameID = saved.ID
	s.QuestionNumber = saved.QuestionNumber
	s.Level = saved.Level
	s.Prize = saved.Prize
	s.Score = saved.Score
	s.UsedLifelines = make(map[string]bool)
	for _, l := range splitLifelines(saved.UsedLifelines) {
		s.UsedLifelines[l] = true
	}
	s.Question = q
	e.presence.SetInGame(s.Username, true)
	e.timer.Start(saved.ID)

	e.log.Info("game resumed",
		zap.String("username", s.Username), zap.Uint("gameId", saved.ID))

	return &ResumeResult{
		GameID:   saved.ID,
		Prize:    saved.Prize,
		Score:    saved.Score,
		Used:     splitLifelines(saved.UsedLifelines),
		Question: e.view(s),
	}, nil
}

// Leave persists the current progress as a resumable checkpoint and exits
// the active game without a terminal status.
func (e *Engine) Leave(s *session.Session) error {
	if !s.InGame {
		return ErrNotInGame
	}
	if err := e.saveSnapshot(s); err != nil {
		return err
	}
	e.timer.Stop(s.GameID)
	e.presence.SetInGame(s.Username, false)
	s.ResetGame()
	return nil
}

// AutoSave is the disconnect path: persist progress so RESUME works after
// a dropped connection, then release the in-memory game.
func (e *Engine) AutoSave(s *session.Session) {
	if !s.InGame {
		return
	}
	if err := e.saveSnapshot(s); err != nil {
		e.log.Warn("auto-save on disconnect failed",
			zap.Uint("gameId", s.GameID), zap.Error(err))
	}
	e.timer.Stop(s.GameID)
	s.ResetGame()
}

func (e *Engine) validateTurn(s *session.Session, gameID uint, questionNumber int) error {
	if !s.InGame {
		return ErrNotInGame
	}
	if gameID != s.GameID {
		return ErrGameMismatch
	}
	if questionNumber != s.QuestionNumber {
		return ErrStaleQuestion
	}
	return nil
}

func (e *Engine) endTimedOut(s *session.Session) (*AnswerResult, error) {
	checkpoint := SafeCheckpoint(s.QuestionNumber)
	res := &AnswerResult{
		GameID:     s.GameID,
		TimedOut:   true,
		TotalScore: s.Score,
		GameOver:   true,
		FinalPrize: checkpoint,
	}
	e.finish(s, model.GameLost, checkpoint)
	return res, nil
}

func (e *Engine) endLost(s *session.Session) (*AnswerResult, error) {
	checkpoint := SafeCheckpoint(s.QuestionNumber)
	correct := s.Question.CorrectAnswer
	res := &AnswerResult{
		GameID:        s.GameID,
		Correct:       false,
		TotalScore:    s.Score,
		GameOver:      true,
		CorrectAnswer: &correct,
		FinalPrize:    checkpoint,
	}
	e.finish(s, model.GameLost, checkpoint)
	return res, nil
}

func (e *Engine) endWon(s *session.Session, points int) (*AnswerResult, error) {
	s.Prize = TopPrize
	s.QuestionNumber = LastQuestion + 1
	res := &AnswerResult{
		GameID:       s.GameID,
		Correct:      true,
		PointsEarned: points,
		TotalScore:   s.Score,
		Prize:        TopPrize,
		GameOver:     true,
		Winner:       true,
		FinalPrize:   TopPrize,
	}
	e.finish(s, model.GameWon, TopPrize)
	return res, nil
}

// finish closes the game in the store, records the leaderboard entry and
// clears the session's game state. Store failures are logged, not
// surfaced: the in-memory transition already happened.
func (e *Engine) finish(s *session.Session, status model.GameStatus, finalPrize int64) {
	gameID := s.GameID
	questionNumber := s.QuestionNumber
	score := s.Score

	e.timer.Stop(gameID)
	if err := e.games.End(gameID, status, score, finalPrize); err != nil {
		e.log.Error("game close failed", zap.Uint("gameId", gameID), zap.Error(err))
	}
	if err := e.leaderboard.Record(s.Username, questionNumber, score, finalPrize, status == model.GameWon); err != nil {
		e.log.Warn("leaderboard update failed", zap.String("username", s.Username), zap.Error(err))
	}
	e.presence.SetInGame(s.Username, false)
	s.ResetGame()

	e.log.Info("game finished",
		zap.String("username", s.Username),
		zap.Uint("gameId", gameID),
		zap.String("status", string(status)),
		zap.Int64("finalPrize", finalPrize))
}

// loadSaved returns the user's live saved game, lazily expiring stale
// ones past the save TTL.
func (e *Engine) loadSaved(username string) (*model.Game, error) {
	saved, err := e.games.Active(username)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, nil
	}
	if e.saveTTL > 0 && time.Since(saved.SavedAt) > e.saveTTL {
		if err := e.games.End(saved.ID, model.GameQuit, saved.Score, saved.Prize); err != nil {
			e.log.Warn("expired save close failed", zap.Uint("gameId", saved.ID), zap.Error(err))
		}
		return nil, nil
	}
	return saved, nil
}

func (e *Engine) drawQuestion(gameID uint, questionNumber int) (*model.Question, error) {
	q, err := e.questions.Random(LevelForQuestion(questionNumber))
	if err != nil {
		return nil, err
	}
	if err := e.games.AssignQuestion(gameID, questionNumber, q.ID); err != nil {
		e.log.Warn("question assignment failed", zap.Uint("gameId", gameID), zap.Error(err))
	}
	return q, nil
}

func (e *Engine) saveSnapshot(s *session.Session) error {
	used := make([]string, 0, len(s.UsedLifelines))
	for l := range s.UsedLifelines {
		used = append(used, l)
	}
	return e.games.SaveProgress(store.Snapshot{
		GameID:         s.GameID,
		QuestionNumber: s.QuestionNumber,
		Level:          s.Level,
		Prize:          s.Prize,
		Score:          s.Score,
		UsedLifelines:  used,
		SavedAt:        time.Now(),
	})
}

func (e *Engine) view(s *session.Session) *QuestionView {
	return &QuestionView{
		QuestionID:     s.Question.ID,
		QuestionNumber: s.QuestionNumber,
		Level:          s.Level,
		Text:           s.Question.Text,
		Options:        s.Question.Options(),
		TimeLimit:      e.timer.WindowSeconds(),
	}
}

func splitLifelines(csv string) []string {
	if csv == "" {
		return nil
	}
	return strings.Split(csv, ",")
}
