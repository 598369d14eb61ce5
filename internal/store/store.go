// Package store declares the narrow persistence interfaces the protocol
// core consumes. GORM/Redis implementations live in internal/repository;
// tests substitute fakes.
package store

import (
	"errors"
	"time"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
)

// Sentinel errors every implementation maps its driver errors onto, so
// protocol handlers never import a storage driver to branch on failures.
var (
	ErrNotFound       = errors.New("record not found")
	ErrAlreadyFriends = errors.New("already friends")
	ErrRequestPending = errors.New("friend request already sent")
)

// Snapshot is the resumable progress of one game, persisted on every
// question advance and on LEAVE_GAME.
type Snapshot struct {
	GameID         uint
	QuestionNumber int
	Level          int
	Prize          int64
	Score          int
	UsedLifelines  []string
	SavedAt        time.Time
}

type Users interface {
	FindByUsername(username string) (*model.User, error)
	Create(user *model.User) error
	Exists(username string) (bool, error)
	UpdatePassword(username, hashed string) error
	UpdateLastLogin(username string) error
	Ban(username, reason string) error
}

type Questions interface {
	Find(id uint) (*model.Question, error)
	Random(level int) (*model.Question, error)
	Create(q *model.Question) error
	Update(q *model.Question) error
	Delete(id uint) error // soft delete
	List(level, page, limit int) ([]model.Question, int64, error)
}

type Games interface {
	Create(username string) (*model.Game, error)
	Active(username string) (*model.Game, error)
	SaveProgress(snap Snapshot) error
	End(gameID uint, status model.GameStatus, score int, finalPrize int64) error
	AssignQuestion(gameID uint, questionNumber int, questionID uint) error
	AssignedQuestion(gameID uint, questionNumber int) (*model.Question, error)
	RecordAnswer(ans *model.GameAnswer) error
	History(username string, limit int) ([]model.Game, error)
	Stats(username string) (*PlayerStats, error)
}

// PlayerStats is the USER_INFO aggregate.
type PlayerStats struct {
	Username            string `json:"username"`
	TotalGames          int64  `json:"totalGames"`
	HighestPrize        int64  `json:"highestPrize"`
	FinalQuestionNumber int    `json:"finalQuestionNumber"`
	TotalScore          int64  `json:"totalScore"`
}

type Friends interface {
	List(username string) ([]string, error)
	AreFriends(a, b string) (bool, error)
	CreateRequest(sender, receiver string) error
	PendingRequests(receiver string) ([]model.FriendRequest, error)
	Accept(sender, receiver string) error
	Decline(sender, receiver string) error
	Delete(a, b string) error
}

type Chats interface {
	Send(msg *model.ChatMessage) error
}

type Leaderboard interface {
	Record(username string, questionNumber int, score int, prize int64, winner bool) error
	Global(page, limit int) ([]model.LeaderboardEntry, int64, error)
	ForUsers(usernames []string, page, limit int) ([]model.LeaderboardEntry, int64, error)
}

// Store bundles every interface for wiring convenience.
type Store struct {
	Users       Users
	Questions   Questions
	Games       Games
	Friends     Friends
	Chats       Chats
	Leaderboard Leaderboard
}
