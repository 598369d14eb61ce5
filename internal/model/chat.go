package model

// ChatMessage 私聊消息，落库后由收件方拉取。
type ChatMessage struct {
	UUIDBase
	Sender    string `gorm:"size:100;index;not null" json:"sender"`
	Recipient string `gorm:"size:100;index;not null" json:"recipient"`
	Content   string `gorm:"size:1000;not null" json:"content"`
	Delivered bool   `gorm:"default:false" json:"delivered"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
