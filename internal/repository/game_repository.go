package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
)

type GameRepository struct {
	DB *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{DB: db}
}

func (r *GameRepository) Create(username string) (*model.Game, error) {
	g := &model.Game{
		Username:       username,
		Status:         model.GameActive,
		QuestionNumber: 1,
		Prize:          1_000_000,
		SavedAt:        time.Now(),
	}
	if err := r.DB.Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// Active returns the user's most recent resumable game, nil if none.
func (r *GameRepository) Active(username string) (*model.Game, error) {
	var g model.Game
	err := r.DB.Where("username = ? AND status = ?", username, model.GameActive).
		Order("id DESC").
		First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GameRepository) SaveProgress(snap store.Snapshot) error {
	return r.DB.Model(&model.Game{}).
		Where("id = ? AND status = ?", snap.GameID, model.GameActive).
		Updates(map[string]interface{}{
			"question_number": snap.QuestionNumber,
			"level":           snap.Level,
			"prize":           snap.Prize,
			"score":           snap.Score,
			"used_lifelines":  strings.Join(snap.UsedLifelines, ","),
			"saved_at":        snap.SavedAt,
		}).Error
}

func (r *GameRepository) End(gameID uint, status model.GameStatus, score int, finalPrize int64) error {
	now := time.Now()
	return r.DB.Model(&model.Game{}).
		Where("id = ?", gameID).
		Updates(map[string]interface{}{
			"status":      status,
			"score":       score,
			"final_prize": finalPrize,
			"ended_at":    &now,
		}).Error
}

func (r *GameRepository) AssignQuestion(gameID uint, questionNumber int, questionID uint) error {
	gq := &model.GameQuestion{
		GameID:         gameID,
		QuestionNumber: questionNumber,
		QuestionID:     questionID,
	}
	return r.DB.Save(gq).Error
}

func (r *GameRepository) AssignedQuestion(gameID uint, questionNumber int) (*model.Question, error) {
	var gq model.GameQuestion
	err := r.DB.Where("game_id = ? AND question_number = ?", gameID, questionNumber).
		First(&gq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var q model.Question
	if err := r.DB.First(&q, gq.QuestionID).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *GameRepository) RecordAnswer(ans *model.GameAnswer) error {
	return r.DB.Create(ans).Error
}

func (r *GameRepository) History(username string, limit int) ([]model.Game, error) {
	var games []model.Game
	err := r.DB.Where("username = ? AND status <> ?", username, model.GameActive).
		Order("id DESC").
		Limit(limit).
		Find(&games).Error
	return games, err
}

func (r *GameRepository) Stats(username string) (*store.PlayerStats, error) {
	stats := &store.PlayerStats{Username: username}

	row := r.DB.Model(&model.Game{}).
		Select("COUNT(*), COALESCE(MAX(final_prize), 0), COALESCE(MAX(question_number), 0), COALESCE(SUM(score), 0)").
		Where("username = ? AND status <> ?", username, model.GameActive).
		Row()
	if err := row.Scan(&stats.TotalGames, &stats.HighestPrize, &stats.FinalQuestionNumber, &stats.TotalScore); err != nil {
		return nil, err
	}
	return stats, nil
}
