package model

import "time"

// Friendship 好友关系表，双向各存一行。
type Friendship struct {
	Username       string    `gorm:"primaryKey;size:100" json:"username"`
	FriendUsername string    `gorm:"primaryKey;size:100" json:"friendUsername"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Friendship) TableName() string {
	return "friendships"
}

// FriendRequest 好友申请表
type FriendRequest struct {
	UUIDBase
	Sender   string `gorm:"size:100;index;not null" json:"sender"`
	Receiver string `gorm:"size:100;index;not null" json:"receiver"`
	Status   string `gorm:"type:enum('pending','accepted','rejected');default:'pending'" json:"status"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}
