package handler

import (
	"sort"
	"strings"
	"time"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
)

// In-memory store used by the router tests. Single-goroutine access only.

const fakeCorrectIndex = 2

type fakeUsers struct {
	byName map[string]*model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: make(map[string]*model.User)}
}

func (f *fakeUsers) FindByUsername(username string) (*model.User, error) {
	u, ok := f.byName[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) Create(user *model.User) error {
	f.byName[user.Username] = user
	return nil
}

func (f *fakeUsers) Exists(username string) (bool, error) {
	_, ok := f.byName[username]
	return ok, nil
}

func (f *fakeUsers) UpdatePassword(username, hashed string) error {
	if u, ok := f.byName[username]; ok {
		u.Password = hashed
	}
	return nil
}

func (f *fakeUsers) UpdateLastLogin(username string) error {
	if u, ok := f.byName[username]; ok {
		u.LastLogin = time.Now()
	}
	return nil
}

func (f *fakeUsers) Ban(username, reason string) error {
	if u, ok := f.byName[username]; ok {
		u.Banned = true
		u.BanReason = reason
	}
	return nil
}

type fakeQuestions struct {
	nextID uint
	byID   map[uint]*model.Question
}

func newFakeQuestions() *fakeQuestions {
	return &fakeQuestions{byID: make(map[uint]*model.Question)}
}

func (f *fakeQuestions) Random(level int) (*model.Question, error) {
	q := &model.Question{
		Text:          "placeholder",
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectAnswer: fakeCorrectIndex,
		Level:         level,
		Active:        true,
	}
	return q, f.Create(q)
}

func (f *fakeQuestions) Find(id uint) (*model.Question, error) {
	q, ok := f.byID[id]
	if !ok || !q.Active {
		return nil, store.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (f *fakeQuestions) Create(q *model.Question) error {
	f.nextID++
	q.ID = f.nextID
	f.byID[q.ID] = q
	return nil
}

func (f *fakeQuestions) Update(q *model.Question) error {
	f.byID[q.ID] = q
	return nil
}

func (f *fakeQuestions) Delete(id uint) error {
	q, ok := f.byID[id]
	if !ok || !q.Active {
		return store.ErrNotFound
	}
	q.Active = false
	return nil
}

func (f *fakeQuestions) List(level, page, limit int) ([]model.Question, int64, error) {
	var out []model.Question
	for _, q := range f.byID {
		if q.Active && (level < 0 || q.Level == level) {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

type fakeGames struct {
	nextID    uint
	games     map[uint]*model.Game
	assigned  map[uint]map[int]uint
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
	g.UsedLifelines = strings.Join(snap.UsedLifelines, ",")
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

func (f *fakeGames) RecordAnswer(ans *model.GameAnswer) error { return nil }

func (f *fakeGames) History(username string, limit int) ([]model.Game, error) {
	var out []model.Game
	for _, g := range f.games {
		if g.Username == username && g.Status != model.GameActive {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeGames) Stats(username string) (*store.PlayerStats, error) {
	stats := &store.PlayerStats{Username: username}
	for _, g := range f.games {
		if g.Username != username || g.Status == model.GameActive {
			continue
		}
		stats.TotalGames++
		stats.TotalScore += int64(g.Score)
		if g.FinalPrize > stats.HighestPrize {
			stats.HighestPrize = g.FinalPrize
		}
		if g.QuestionNumber > stats.FinalQuestionNumber {
			stats.FinalQuestionNumber = g.QuestionNumber
		}
	}
	return stats, nil
}

type fakeFriends struct {
	pairs    map[string]map[string]bool
	requests []*model.FriendRequest
}

func newFakeFriends() *fakeFriends {
	return &fakeFriends{pairs: make(map[string]map[string]bool)}
}

func (f *fakeFriends) link(a, b string) {
	if f.pairs[a] == nil {
		f.pairs[a] = make(map[string]bool)
	}
	if f.pairs[b] == nil {
		f.pairs[b] = make(map[string]bool)
	}
	f.pairs[a][b] = true
	f.pairs[b][a] = true
}

func (f *fakeFriends) List(username string) ([]string, error) {
	var out []string
	for friend := range f.pairs[username] {
		out = append(out, friend)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeFriends) AreFriends(a, b string) (bool, error) {
	return f.pairs[a][b], nil
}

func (f *fakeFriends) CreateRequest(sender, receiver string) error {
	for _, r := range f.requests {
		if r.Sender == sender && r.Receiver == receiver && r.Status == "pending" {
			return store.ErrRequestPending
		}
	}
	req := &model.FriendRequest{Sender: sender, Receiver: receiver, Status: "pending"}
	req.CreatedAt = time.Now()
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeFriends) PendingRequests(receiver string) ([]model.FriendRequest, error) {
	var out []model.FriendRequest
	for _, r := range f.requests {
		if r.Receiver == receiver && r.Status == "pending" {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeFriends) Accept(sender, receiver string) error {
	for _, r := range f.requests {
		if r.Sender == sender && r.Receiver == receiver && r.Status == "pending" {
			r.Status = "accepted"
			f.link(sender, receiver)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeFriends) Decline(sender, receiver string) error {
	for _, r := range f.requests {
		if r.Sender == sender && r.Receiver == receiver && r.Status == "pending" {
			r.Status = "rejected"
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeFriends) Delete(a, b string) error {
	delete(f.pairs[a], b)
	delete(f.pairs[b], a)
	return nil
}

type fakeChats struct {
	sent []model.ChatMessage
}

func (f *fakeChats) Send(msg *model.ChatMessage) error {
	f.sent = append(f.sent, *msg)
	return nil
}

type fakeLeaderboard struct {
	entries map[string]*model.LeaderboardEntry
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{entries: make(map[string]*model.LeaderboardEntry)}
}

func (f *fakeLeaderboard) Record(username string, questionNumber int, score int, prize int64, winner bool) error {
	e, ok := f.entries[username]
	if !ok {
		e = &model.LeaderboardEntry{Username: username}
		f.entries[username] = e
	}
	if score > e.BestScore {
		e.BestScore = score
	}
	if questionNumber > e.FinalQuestionNumber {
		e.FinalQuestionNumber = questionNumber
	}
	if prize > e.HighestPrize {
		e.HighestPrize = prize
	}
	e.Winner = e.Winner || winner
	return nil
}

func (f *fakeLeaderboard) sorted() []model.LeaderboardEntry {
	var out []model.LeaderboardEntry
	for _, e := range f.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BestScore > out[j].BestScore })
	return out
}

func (f *fakeLeaderboard) Global(page, limit int) ([]model.LeaderboardEntry, int64, error) {
	all := f.sorted()
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeLeaderboard) ForUsers(usernames []string, page, limit int) ([]model.LeaderboardEntry, int64, error) {
	wanted := make(map[string]bool, len(usernames))
	for _, u := range usernames {
		wanted[u] = true
	}
	var filtered []model.LeaderboardEntry
	for _, e := range f.sorted() {
		if wanted[e.Username] {
			filtered = append(filtered, e)
		}
	}
	return paginate(filtered, page, limit), int64(len(filtered)), nil
}

func paginate(entries []model.LeaderboardEntry, page, limit int) []model.LeaderboardEntry {
	start := (page - 1) * limit
	if start >= len(entries) {
		return nil
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end]
}
