package repository

import (
	"gorm.io/gorm"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
)

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

// Send stores the message. Delivered is set by the caller depending on
// whether the recipient was online to receive the push.
func (r *ChatRepository) Send(msg *model.ChatMessage) error {
	return r.DB.Create(msg).Error
}
