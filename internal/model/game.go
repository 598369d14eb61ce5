package model

import "time"

type GameStatus string

const (
	GameActive GameStatus = "active"
	GameWon    GameStatus = "won"
	GameLost   GameStatus = "lost"
	GameQuit   GameStatus = "quit"
)

// Game 一局游戏（最多 15 题）。active 状态的记录即可续玩的存档。
type Game struct {
	BaseModel
	Username       string     `gorm:"size:100;index;not null" json:"username"`
	Status         GameStatus `gorm:"type:enum('active','won','lost','quit');default:'active'" json:"status"`
	QuestionNumber int        `gorm:"default:1" json:"questionNumber"` // 1-15, 16 = just won
	Level          int        `gorm:"default:0" json:"level"`          // 0-2
	Prize          int64      `gorm:"default:1000000" json:"prize"`
	Score          int        `gorm:"default:0" json:"score"`
	UsedLifelines  string     `gorm:"size:50" json:"usedLifelines"` // comma separated
	FinalPrize     int64      `gorm:"default:0" json:"finalPrize"`
	SavedAt        time.Time  `json:"savedAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
}

func (Game) TableName() string {
	return "games"
}

// GameQuestion 记录一局游戏中每道题抽到的题目，RESUME 时按此恢复当前题。
type GameQuestion struct {
	GameID         uint `gorm:"primaryKey"`
	QuestionNumber int  `gorm:"primaryKey"`
	QuestionID     uint `gorm:"not null"`
}

func (GameQuestion) TableName() string {
	return "game_questions"
}

// GameAnswer 答题流水
type GameAnswer struct {
	BaseModel
	GameID          uint `gorm:"index;not null"`
	QuestionNumber  int  `gorm:"not null"`
	SelectedOption  int  `gorm:"not null"`
	Correct         bool `gorm:"not null"`
	ResponseSeconds int  `gorm:"not null"`
}

func (GameAnswer) TableName() string {
	return "game_answers"
}

// LeaderboardEntry 每个玩家的最佳成绩，游戏结束时更新。
type LeaderboardEntry struct {
	BaseModel
	Username            string `gorm:"size:100;unique;not null" json:"username"`
	BestScore           int    `gorm:"default:0" json:"totalScore"`
	FinalQuestionNumber int    `gorm:"default:0" json:"finalQuestionNumber"`
	HighestPrize        int64  `gorm:"default:0" json:"highestPrize"`
	Winner              bool   `gorm:"default:false" json:"isWinner"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard_entries"
}
