package repository

import (
	"sports_academy_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.First(&quiz, "id = ?", id).Error
	return &quiz, err
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, "id = ?", id).Error
	})
}

type QuizListRow struct {
	model.Quiz
	QuestionCount int `json:"questionCount"`
	AttemptCount  int `json:"attemptCount"`
}

func (r *QuizRepository) List(page, limit int, courseTag string, publishedOnly bool) ([]QuizListRow, int64, error) {
	countQuery := r.DB.Model(&model.Quiz{}).Where("deleted_at IS NULL")
	if courseTag != "" {
		countQuery = countQuery.Where("course_tag = ?", courseTag)
	}
	if publishedOnly {
		countQuery = countQuery.Where("is_published = ?", true)
	}
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dbQuery := r.DB.Table("quizzes q").
		Select("q.*, " +
			"(SELECT COUNT(*) FROM questions qs WHERE qs.quiz_id = q.id AND qs.deleted_at IS NULL) as question_count, " +
			"(SELECT COUNT(*) FROM attempts a WHERE a.quiz_id = q.id AND a.deleted_at IS NULL) as attempt_count").
		Where("q.deleted_at IS NULL")
	if courseTag != "" {
		dbQuery = dbQuery.Where("q.course_tag = ?", courseTag)
	}
	if publishedOnly {
		dbQuery = dbQuery.Where("q.is_published = ?", true)
	}
	if limit > 0 {
		offset := (page - 1) * limit
		dbQuery = dbQuery.Offset(offset).Limit(limit)
	}

	var rows []QuizListRow
	err := dbQuery.Order("q.created_at desc").Scan(&rows).Error
	return rows, total, err
}

func (r *QuizRepository) CreateQuestion(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuizRepository) UpdateQuestion(question *model.Question) error {
	return r.DB.Save(question).Error
}

func (r *QuizRepository) DeleteQuestion(id string) error {
	return r.DB.Delete(&model.Question{}, "id = ?", id).Error
}

func (r *QuizRepository) ListQuestions(quizID string) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("quiz_id = ?", quizID).Order("`order` asc, created_at asc").Find(&qs).Error
	return qs, err
}

// CountAttempts reports how many attempts exist against a quiz; quizzes with
// attempts are frozen for question edits.
func (r *QuizRepository) CountAttempts(quizID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}
