package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
)

const leaderboardKey = "leaderboard:score"

// LeaderboardRepository keeps the per-player best results in MySQL and
// mirrors the score ranking into a Redis sorted set for cheap rank reads.
type LeaderboardRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewLeaderboardRepository(db *gorm.DB, rdb *redis.Client) *LeaderboardRepository {
	return &LeaderboardRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

// Record upserts a finished game into the player's best-result row and
// refreshes the ZSET mirror.
func (r *LeaderboardRepository) Record(username string, questionNumber int, score int, prize int64, winner bool) error {
	var entry model.LeaderboardEntry
	err := r.DB.Where("username = ?", username).First(&entry).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	entry.Username = username
	if score > entry.BestScore {
		entry.BestScore = score
	}
	if questionNumber > entry.FinalQuestionNumber {
		entry.FinalQuestionNumber = questionNumber
	}
	if prize > entry.HighestPrize {
		entry.HighestPrize = prize
	}
	entry.Winner = entry.Winner || winner

	if err := r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"best_score", "final_question_number", "highest_prize", "winner", "updated_at",
		}),
	}).Create(&entry).Error; err != nil {
		return err
	}

	if r.Redis != nil {
		r.Redis.ZAdd(r.ctx, leaderboardKey, &redis.Z{
			Score:  float64(entry.BestScore),
			Member: username,
		})
		r.Redis.Expire(r.ctx, leaderboardKey, 7*24*time.Hour)
	}
	return nil
}

// Global returns one page ordered by best score. Redis supplies the
// ordering when available; MySQL backs the page either way.
func (r *LeaderboardRepository) Global(page, limit int) ([]model.LeaderboardEntry, int64, error) {
	if r.Redis != nil {
		start := int64((page - 1) * limit)
		names, err := r.Redis.ZRevRange(r.ctx, leaderboardKey, start, start+int64(limit)-1).Result()
		if err == nil && len(names) > 0 {
			total, _ := r.Redis.ZCard(r.ctx, leaderboardKey).Result()
			entries, err := r.hydrate(names)
			if err == nil {
				return entries, total, nil
			}
		}
	}

	var entries []model.LeaderboardEntry
	var total int64
	if err := r.DB.Model(&model.LeaderboardEntry{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.DB.Order("best_score DESC, highest_prize DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}

// ForUsers returns the page restricted to the given usernames (the friend
// leaderboard).
func (r *LeaderboardRepository) ForUsers(usernames []string, page, limit int) ([]model.LeaderboardEntry, int64, error) {
	if len(usernames) == 0 {
		return nil, 0, nil
	}

	var entries []model.LeaderboardEntry
	var total int64
	db := r.DB.Model(&model.LeaderboardEntry{}).Where("username IN ?", usernames)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("best_score DESC, highest_prize DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}

// hydrate loads full rows for a ranked username list, preserving order.
func (r *LeaderboardRepository) hydrate(usernames []string) ([]model.LeaderboardEntry, error) {
	var rows []model.LeaderboardEntry
	if err := r.DB.Where("username IN ?", usernames).Find(&rows).Error; err != nil {
		return nil, err
	}

	byName := make(map[string]model.LeaderboardEntry, len(rows))
	for _, row := range rows {
		byName[row.Username] = row
	}
	entries := make([]model.LeaderboardEntry, 0, len(usernames))
	for _, name := range usernames {
		if row, ok := byName[name]; ok {
			entries = append(entries, row)
		}
	}
	return entries, nil
}
