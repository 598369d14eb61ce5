package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
)

type FriendshipRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewFriendshipRepository(db *gorm.DB, rdb *redis.Client) *FriendshipRepository {
	return &FriendshipRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

func friendsCacheKey(username string) string {
	return fmt.Sprintf("social:friends:%s", username)
}

// List returns the usernames of all confirmed friends, consulting the
// Redis set cache first and falling back to the database.
func (r *FriendshipRepository) List(username string) ([]string, error) {
	if r.Redis != nil {
		cached, err := r.Redis.SMembers(r.ctx, friendsCacheKey(username)).Result()
		if err == nil && len(cached) > 0 {
			friends := make([]string, 0, len(cached))
			for _, f := range cached {
				if f != "" {
					friends = append(friends, f)
				}
			}
			return friends, nil
		}
	}

	var friends []string
	err := r.DB.Model(&model.Friendship{}).
		Where("username = ?", username).
		Pluck("friend_username", &friends).Error
	if err != nil {
		return nil, err
	}

	if r.Redis != nil && len(friends) > 0 {
		pipe := r.Redis.Pipeline()
		for _, f := range friends {
			pipe.SAdd(r.ctx, friendsCacheKey(username), f)
		}
		pipe.Expire(r.ctx, friendsCacheKey(username), 24*time.Hour)
		pipe.Exec(r.ctx)
	}
	return friends, nil
}

func (r *FriendshipRepository) AreFriends(a, b string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Friendship{}).
		Where("username = ? AND friend_username = ?", a, b).
		Count(&count).Error
	return count > 0, err
}

func (r *FriendshipRepository) CreateRequest(sender, receiver string) error {
	var pending int64
	err := r.DB.Model(&model.FriendRequest{}).
		Where("sender = ? AND receiver = ? AND status = ?", sender, receiver, "pending").
		Count(&pending).Error
	if err != nil {
		return err
	}
	if pending > 0 {
		return store.ErrRequestPending
	}

	return r.DB.Create(&model.FriendRequest{
		Sender:   sender,
		Receiver: receiver,
		Status:   "pending",
	}).Error
}

func (r *FriendshipRepository) PendingRequests(receiver string) ([]model.FriendRequest, error) {
	var requests []model.FriendRequest
	err := r.DB.Where("receiver = ? AND status = ?", receiver, "pending").
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// Accept flips the pending request and writes the friendship both ways in
// one transaction.
func (r *FriendshipRepository) Accept(sender, receiver string) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.FriendRequest{}).
			Where("sender = ? AND receiver = ? AND status = ?", sender, receiver, "pending").
			Update("status", "accepted")
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}

		if err := tx.Create(&model.Friendship{Username: sender, FriendUsername: receiver}).Error; err != nil {
			return err
		}
		return tx.Create(&model.Friendship{Username: receiver, FriendUsername: sender}).Error
	})

	if err == nil {
		r.invalidate(sender, receiver)
	}
	return err
}

func (r *FriendshipRepository) Decline(sender, receiver string) error {
	res := r.DB.Model(&model.FriendRequest{}).
		Where("sender = ? AND receiver = ? AND status = ?", sender, receiver, "pending").
		Update("status", "rejected")
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *FriendshipRepository) Delete(a, b string) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ? AND friend_username = ?", a, b).
			Delete(&model.Friendship{}).Error; err != nil {
			return err
		}
		return tx.Where("username = ? AND friend_username = ?", b, a).
			Delete(&model.Friendship{}).Error
	})

	if err == nil {
		r.invalidate(a, b)
	}
	return err
}

func (r *FriendshipRepository) invalidate(users ...string) {
	if r.Redis == nil {
		return
	}
	for _, u := range users {
		r.Redis.Del(r.ctx, friendsCacheKey(u))
	}
}
