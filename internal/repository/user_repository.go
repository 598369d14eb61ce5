package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) Exists(username string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdatePassword(username, hashed string) error {
	return r.DB.Model(&model.User{}).
		Where("username = ?", username).
		Update("password", hashed).
		Error
}

func (r *UserRepository) UpdateLastLogin(username string) error {
	return r.DB.Model(&model.User{}).
		Where("username = ?", username).
		Update("last_login", time.Now()).
		Error
}

func (r *UserRepository) Ban(username, reason string) error {
	return r.DB.Model(&model.User{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{"banned": true, "ban_reason": reason}).
		Error
}
