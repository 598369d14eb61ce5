package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Find(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Where("active = ?", true).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Random draws one active question uniformly from the given level.
func (r *QuestionRepository) Random(level int) (*model.Question, error) {
	var q model.Question
	err := r.DB.Where("level = ? AND active = ?", level, true).
		Order("RAND()").
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) Update(q *model.Question) error {
	return r.DB.Save(q).Error
}

// Delete soft-deletes: the question stays referenced by past games.
func (r *QuestionRepository) Delete(id uint) error {
	res := r.DB.Model(&model.Question{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *QuestionRepository) List(level, page, limit int) ([]model.Question, int64, error) {
	var questions []model.Question
	var total int64

	db := r.DB.Model(&model.Question{}).Where("active = ?", true)
	if level >= 0 {
		db = db.Where("level = ?", level)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&questions).Error
	return questions, total, err
}
