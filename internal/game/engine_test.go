package game

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
)

// Every question drawn by the fake bank has this correct index.
const fakeCorrectIndex = 1

type fakeQuestions struct {
	nextID    uint
	byID      map[uint]*model.Question
	randomErr error
}

func newFakeQuestions() *fakeQuestions {
	return &fakeQuestions{byID: make(map[uint]*model.Question)}
}

func (f *fakeQuestions) Random(level int) (*model.Question, error) {
	if f.randomErr != nil {
		return nil, f.randomErr
	}
	f.nextID++
	q := &model.Question{
		Text:          "placeholder",
		OptionA:       "a", OptionB: "b", OptionC: "c", OptionD: "d",
		CorrectAnswer: fakeCorrectIndex,
		Level:         level,
		Active:        true,
	}
	q.ID = f.nextID
	f.byID[q.ID] = q
	return q, nil
}

func (f *fakeQuestions) Find(id uint) (*model.Question, error) {
	q, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return q, nil
}

func (f *fakeQuestions) Create(q *model.Question) error { return nil }
func (f *fakeQuestions) Update(q *model.Question) error { return nil }
func (f *fakeQuestions) Delete(id uint) error           { return nil }
func (f *fakeQuestions) List(level, page, limit int) ([]model.Question, int64, error) {
	return nil, 0, nil
}

type fakeGames struct {
	nextID    uint
	games     map[uint]*model.Game
	assigned  map[uint]map[int]uint
	answers   []model.GameAnswer
	questions *fakeQuestions
}

func newFakeGames(q *fakeQuestions) *fakeGames {
	return &fakeGames{
		games:     make(map[uint]*model.Game),
		assigned:  make(map[uint]map[int]uint),
		questions: q,
	}
}

func (f *fakeGames) Create(username string) (*model.Game, error) {
	f.nextID++
	g := &model.Game{
		Username:       username,
		Status:         model.GameActive,
		QuestionNumber: 1,
		Prize:          1_000_000,
		SavedAt:        time.Now(),
	}
	g.ID = f.nextID
	f.games[g.ID] = g
	return g, nil
}

func (f *fakeGames) Active(username string) (*model.Game, error) {
	for _, g := range f.games {
		if g.Username == username && g.Status == model.GameActive {
			return g, nil
		}
	}
	return nil, nil
}

func (f *fakeGames) SaveProgress(snap store.Snapshot) error {
	g, ok := f.games[snap.GameID]
	if !ok {
		return store.ErrNotFound
	}
	g.QuestionNumber = snap.QuestionNumber
	g.Level = snap.Level
	g.Prize = snap.Prize
	g.Score = snap.Score
	sort.Strings(snap.UsedLifelines)
	g.UsedLifelines = ""
	for i, l := range snap.UsedLifelines {
		if i > 0 {
			g.UsedLifelines += ","
		}
		g.UsedLifelines += l
	}
	g.SavedAt = snap.SavedAt
	return nil
}

func (f *fakeGames) End(gameID uint, status model.GameStatus, score int, finalPrize int64) error {
	g, ok := f.games[gameID]
	if !ok {
		return store.ErrNotFound
	}
	g.Status = status
	g.Score = score
	g.FinalPrize = finalPrize
	now := time.Now()
	g.EndedAt = &now
	return nil
}

func (f *fakeGames) AssignQuestion(gameID uint, questionNumber int, questionID uint) error {
	if f.assigned[gameID] == nil {
		f.assigned[gameID] = make(map[int]uint)
	}
	f.assigned[gameID][questionNumber] = questionID
	return nil
}

func (f *fakeGames) AssignedQuestion(gameID uint, questionNumber int) (*model.Question, error) {
	id, ok := f.assigned[gameID][questionNumber]
	if !ok {
		return nil, nil
	}
	return f.questions.Find(id)
}

func (f *fakeGames) RecordAnswer(ans *model.GameAnswer) error {
	f.answers = append(f.answers, *ans)
	return nil
}

func (f *fakeGames) History(username string, limit int) ([]model.Game, error) {
	return nil, nil
}

func (f *fakeGames) Stats(username string) (*store.PlayerStats, error) {
	return &store.PlayerStats{Username: username}, nil
}

type leaderboardRecord struct {
	username       string
	questionNumber int
	score          int
	prize          int64
	winner         bool
}

type fakeLeaderboard struct {
	records []leaderboardRecord
}

func (f *fakeLeaderboard) Record(username string, questionNumber int, score int, prize int64, winner bool) error {
	f.records = append(f.records, leaderboardRecord{username, questionNumber, score, prize, winner})
	return nil
}

func (f *fakeLeaderboard) Global(page, limit int) ([]model.LeaderboardEntry, int64, error) {
	return nil, 0, nil
}

func (f *fakeLeaderboard) ForUsers(usernames []string, page, limit int) ([]model.LeaderboardEntry, int64, error) {
	return nil, 0, nil
}

type fakePresence struct {
	inGame map[string]bool
}

func (f *fakePresence) SetInGame(username string, inGame bool) {
	if f.inGame == nil {
		f.inGame = make(map[string]bool)
	}
	f.inGame[username] = inGame
}

type engineFixture struct {
	engine      *Engine
	games       *fakeGames
	questions   *fakeQuestions
	leaderboard *fakeLeaderboard
	presence    *fakePresence
	clock       *time.Time
}

// advance moves the frozen clock the timer reads from.
func (fx *engineFixture) advance(d time.Duration) {
	*fx.clock = fx.clock.Add(d)
}

func newEngineFixture(t *testing.T, saveTTL time.Duration) *engineFixture {
	t.Helper()

	questions := newFakeQuestions()
	games := newFakeGames(questions)
	leaderboard := &fakeLeaderboard{}
	presence := &fakePresence{}

	now := time.Now()
	timer := NewTimer(60 * time.Second)
	timer.now = func() time.Time { return now }

	engine := NewEngine(games, questions, leaderboard, presence,
		timer, NewOracle(), saveTTL, zap.NewNop())

	return &engineFixture{
		engine:      engine,
		games:       games,
		questions:   questions,
		leaderboard: leaderboard,
		presence:    presence,
		clock:       &now,
	}
}

func newPlayer(username string) *session.Session {
	return &session.Session{
		ConnID:        1,
		Authenticated: true,
		Username:      username,
		Role:          model.RoleUser,
	}
}

func mustStart(t *testing.T, fx *engineFixture, s *session.Session) *StartResult {
	t.Helper()
	res, err := fx.engine.Start(s, false)
	require.NoError(t, err)
	return res
}

func answerCorrectly(t *testing.T, fx *engineFixture, s *session.Session) *AnswerResult {
	t.Helper()
	res, err := fx.engine.Answer(s, s.GameID, s.QuestionNumber, fakeCorrectIndex)
	require.NoError(t, err)
	return res
}

func TestStartDealsFirstQuestion(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")

	res := mustStart(t, fx, s)

	assert.NotZero(t, res.GameID)
	assert.Equal(t, int64(1_000_000), res.Prize)
	require.NotNil(t, res.Question)
	assert.Equal(t, 1, res.Question.QuestionNumber)
	assert.Equal(t, 0, res.Question.Level)
	assert.Equal(t, 60, res.Question.TimeLimit)

	assert.True(t, s.InGame)
	assert.True(t, fx.presence.inGame["alice"])
}

func TestStartWhileInGame(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	mustStart(t, fx, s)

	_, err := fx.engine.Start(s, false)
	assert.ErrorIs(t, err, ErrAlreadyInGame)
}

func TestAnswerCorrectAdvances(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	mustStart(t, fx, s)

	res := answerCorrectly(t, fx, s)

	assert.True(t, res.Correct)
	assert.False(t, res.GameOver)
	assert.Equal(t, 60, res.PointsEarned) // full clock, no lifelines
	assert.Equal(t, int64(2_000_000), res.Prize)
	require.NotNil(t, res.NextQuestion)
	assert.Equal(t, 2, res.NextQuestion.QuestionNumber)

	// Progress is checkpointed after every advance.
	saved := fx.games.games[s.GameID]
	assert.Equal(t, 2, saved.QuestionNumber)
	assert.Equal(t, int64(2_000_000), saved.Prize)
}

func TestAnswerDrawFailureLeavesSessionInPlace(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	mustStart(t, fx, s)
	firstQuestion := s.Question

	fx.questions.randomErr = errors.New("bank unavailable")
	_, err := fx.engine.Answer(s, s.GameID, 1, fakeCorrectIndex)
	require.Error(t, err)

	// The session must not advance past a question that was never dealt.
	assert.Equal(t, 1, s.QuestionNumber)
	assert.Equal(t, int64(1_000_000), s.Prize)
	assert.Equal(t, 0, s.Score)
	assert.Same(t, firstQuestion, s.Question)

	// Once the bank recovers the same turn completes normally.
	fx.questions.randomErr = nil
	res := answerCorrectly(t, fx, s)
	assert.Equal(t, 2, res.NextQuestion.QuestionNumber)
	assert.Equal(t, 2, s.QuestionNumber)
}

func TestAnswerWrongEndsAtCheckpoint(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)
	gameID := res.GameID

	wrong := (fakeCorrectIndex + 1) % 4
	ans, err := fx.engine.Answer(s, gameID, 1, wrong)
	require.NoError(t, err)

	assert.False(t, ans.Correct)
	assert.True(t, ans.GameOver)
	assert.Equal(t, int64(0), ans.FinalPrize)
	require.NotNil(t, ans.CorrectAnswer)
	assert.Equal(t, fakeCorrectIndex, *ans.CorrectAnswer)

	assert.False(t, s.InGame)
	assert.Equal(t, model.GameLost, fx.games.games[gameID].Status)
	require.Len(t, fx.leaderboard.records, 1)
	assert.Equal(t, "alice", fx.leaderboard.records[0].username)
	assert.False(t, fx.presence.inGame["alice"])
}

func TestGiveUpAfterFiveCorrectAnswers(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)

	for i := 0; i < 5; i++ {
		answerCorrectly(t, fx, s)
	}
	require.Equal(t, 6, s.QuestionNumber)

	quit, err := fx.engine.GiveUp(s, res.GameID, 6)
	require.NoError(t, err)

	assert.Equal(t, int64(32_000_000), quit.FinalPrize)
	assert.Equal(t, 6, quit.FinalQuestionNumber)
	assert.False(t, s.InGame)
	assert.Equal(t, model.GameQuit, fx.games.games[res.GameID].Status)
}

func TestWinAtQuestionFifteen(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)

	var last *AnswerResult
	for i := 0; i < 15; i++ {
		last = answerCorrectly(t, fx, s)
	}

	assert.True(t, last.GameOver)
	assert.True(t, last.Winner)
	assert.Equal(t, TopPrize, last.FinalPrize)
	assert.Equal(t, model.GameWon, fx.games.games[res.GameID].Status)
	require.Len(t, fx.leaderboard.records, 1)
	assert.True(t, fx.leaderboard.records[0].winner)
}

func TestTimeoutLossAtCheckpoint(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)

	// Reach question 6 so the 10M checkpoint is locked in.
	for i := 0; i < 5; i++ {
		answerCorrectly(t, fx, s)
	}

	fx.advance(61 * time.Second)
	ans, err := fx.engine.Answer(s, res.GameID, 6, fakeCorrectIndex)
	require.NoError(t, err)

	assert.True(t, ans.TimedOut)
	assert.True(t, ans.GameOver)
	assert.Equal(t, int64(10_000_000), ans.FinalPrize)
	assert.Equal(t, model.GameLost, fx.games.games[res.GameID].Status)
}

func TestLifelinesAreOneShot(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)

	hint, err := fx.engine.Lifeline(s, res.GameID, 1, "5050")
	require.NoError(t, err)
	assert.Equal(t, "5050", hint.Type)
	assert.NotNil(t, hint.Hint)
	assert.Equal(t, 1, s.LifelinesUsed())

	_, err = fx.engine.Lifeline(s, res.GameID, 1, "5050")
	assert.ErrorIs(t, err, ErrLifelineUsed)

	// The other two are still available.
	_, err = fx.engine.Lifeline(s, res.GameID, 1, "PHONE")
	require.NoError(t, err)
	_, err = fx.engine.Lifeline(s, res.GameID, 1, "AUDIENCE")
	require.NoError(t, err)
	assert.Equal(t, 3, s.LifelinesUsed())
}

func TestLifelineInvalidType(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)

	_, err := fx.engine.Lifeline(s, res.GameID, 1, "GOOGLE")
	assert.ErrorIs(t, err, ErrInvalidLifeline)
	assert.Zero(t, s.LifelinesUsed())
}

func TestLifelinePenaltyReducesScore(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)

	_, err := fx.engine.Lifeline(s, res.GameID, 1, "5050")
	require.NoError(t, err)

	ans := answerCorrectly(t, fx, s)
	assert.Equal(t, 55, ans.PointsEarned) // 60 seconds left minus one lifeline
}

func TestStructuralValidationLeavesStateUntouched(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)

	_, err := fx.engine.Answer(s, res.GameID+99, 1, fakeCorrectIndex)
	assert.ErrorIs(t, err, ErrGameMismatch)

	_, err = fx.engine.Answer(s, res.GameID, 7, fakeCorrectIndex)
	assert.ErrorIs(t, err, ErrStaleQuestion)

	_, err = fx.engine.Answer(s, res.GameID, 1, 4)
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	_, err = fx.engine.Answer(s, res.GameID, 1, -1)
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	assert.True(t, s.InGame)
	assert.Equal(t, 1, s.QuestionNumber)
	assert.Equal(t, model.GameActive, fx.games.games[res.GameID].Status)
}

func TestAnswerWithoutGame(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")

	_, err := fx.engine.Answer(s, 1, 1, 0)
	assert.ErrorIs(t, err, ErrNotInGame)
}

func TestLeaveThenResumeRestoresProgress(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)

	_, err := fx.engine.Lifeline(s, res.GameID, 1, "PHONE")
	require.NoError(t, err)
	answerCorrectly(t, fx, s)
	score := s.Score

	require.NoError(t, fx.engine.Leave(s))
	assert.False(t, s.InGame)
	assert.False(t, fx.presence.inGame["alice"])

	resumed, err := fx.engine.Resume(s)
	require.NoError(t, err)

	assert.Equal(t, res.GameID, resumed.GameID)
	assert.Equal(t, int64(2_000_000), resumed.Prize)
	assert.Equal(t, score, resumed.Score)
	assert.Contains(t, resumed.Used, "PHONE")
	require.NotNil(t, resumed.Question)
	assert.Equal(t, 2, resumed.Question.QuestionNumber)

	assert.True(t, s.InGame)
	assert.True(t, s.UsedLifelines["PHONE"])
}

func TestResumeWithoutSavedGame(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")

	_, err := fx.engine.Resume(s)
	assert.ErrorIs(t, err, ErrNoSavedGame)
}

func TestStartBlockedBySavedGameUntilOverridden(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	first := mustStart(t, fx, s)
	require.NoError(t, fx.engine.Leave(s))

	_, err := fx.engine.Start(s, false)
	assert.ErrorIs(t, err, ErrSavedGameExists)

	second, err := fx.engine.Start(s, true)
	require.NoError(t, err)
	assert.NotEqual(t, first.GameID, second.GameID)
	assert.Equal(t, model.GameQuit, fx.games.games[first.GameID].Status)
}

func TestExpiredSaveIsDiscarded(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	first := mustStart(t, fx, s)
	require.NoError(t, fx.engine.Leave(s))

	fx.games.games[first.GameID].SavedAt = time.Now().Add(-2 * time.Hour)

	_, err := fx.engine.Resume(s)
	assert.ErrorIs(t, err, ErrNoSavedGame)
	assert.Equal(t, model.GameQuit, fx.games.games[first.GameID].Status)
}

func TestAutoSavePersistsOnDisconnect(t *testing.T) {
	fx := newEngineFixture(t, time.Hour)
	s := newPlayer("alice")
	res := mustStart(t, fx, s)
	answerCorrectly(t, fx, s)

	fx.engine.AutoSave(s)

	assert.False(t, s.InGame)
	saved := fx.games.games[res.GameID]
	assert.Equal(t, model.GameActive, saved.Status)
	assert.Equal(t, 2, saved.QuestionNumber)
}
