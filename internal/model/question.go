package model

// Question 题库表。Level 0/1/2 对应第 1–5、6–10、11–15 题。
type Question struct {
	BaseModel
	Text          string `gorm:"size:500;not null" json:"text"`
	OptionA       string `gorm:"size:255;not null" json:"optionA"`
	OptionB       string `gorm:"size:255;not null" json:"optionB"`
	OptionC       string `gorm:"size:255;not null" json:"optionC"`
	OptionD       string `gorm:"size:255;not null" json:"optionD"`
	CorrectAnswer int    `gorm:"not null" json:"-"` // 0-3
	Level         int    `gorm:"index;not null" json:"level"`
	Active        bool   `gorm:"default:true" json:"active"`
	UpdatedBy     string `gorm:"size:100" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}

// Options returns the four answer options in index order.
func (q *Question) Options() [4]string {
	return [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}
