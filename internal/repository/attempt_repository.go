package repository

import (
	"sports_academy_backend/internal/model"
	"sports_academy_backend/internal/util"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.Attempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.DB.First(&attempt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) FindInProgress(userID uint, quizID string) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.DB.Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, model.AttemptInProgress).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FinalizeWithAnswers persists the graded answers and marks the attempt
// completed in one transaction. The status predicate on the UPDATE is the
// double-submit guard: of two racing submissions only one can flip
// in_progress to completed, the other sees zero affected rows and gets a
// conflict. Nothing partial is ever visible to readers.
func (r *AttemptRepository) FinalizeWithAnswers(attempt *model.Attempt, answers []model.GradedAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Attempt{}).
			Where("id = ? AND status = ?", attempt.ID, model.AttemptInProgress).
			Updates(map[string]interface{}{
				"status":         model.AttemptCompleted,
				"completed_at":   attempt.CompletedAt,
				"time_spent":     attempt.TimeSpent,
				"answers":        attempt.Answers,
				"score":          attempt.Score,
				"max_score":      attempt.MaxScore,
				"percentage":     attempt.Percentage,
				"passed":         attempt.Passed,
				"auto_submitted": attempt.AutoSubmitted,
				"needs_grading":  attempt.NeedsGrading,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrAttemptCompleted
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *AttemptRepository) ListAnswers(attemptID string) ([]model.GradedAnswer, error) {
	var answers []model.GradedAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

func (r *AttemptRepository) FindAnswer(attemptID, questionID string) (*model.GradedAnswer, error) {
	var answer model.GradedAnswer
	err := r.DB.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// SaveReview writes a coach's manual grade and re-aggregates the attempt in
// one transaction. The answer rows are re-read inside the transaction and
// handed to aggregate, which mutates the attempt totals before they persist;
// reading outside the transaction would let two concurrent reviews of one
// attempt overwrite each other's points.
func (r *AttemptRepository) SaveReview(attempt *model.Attempt, answer *model.GradedAnswer, aggregate func(answers []model.GradedAnswer)) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(answer).Error; err != nil {
			return err
		}

		var answers []model.GradedAnswer
		if err := tx.Where("attempt_id = ?", attempt.ID).Find(&answers).Error; err != nil {
			return err
		}
		aggregate(answers)

		return tx.Model(&model.Attempt{}).
			Where("id = ?", attempt.ID).
			Updates(map[string]interface{}{
				"score":         attempt.Score,
				"percentage":    attempt.Percentage,
				"passed":        attempt.Passed,
				"needs_grading": attempt.NeedsGrading,
			}).Error
	})
}

func (r *AttemptRepository) ListByUser(userID uint, page, limit int) ([]model.Attempt, int64, error) {
	query := r.DB.Model(&model.Attempt{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []model.Attempt
	offset := (page - 1) * limit
	err := query.Preload("Quiz").Order("created_at desc").Offset(offset).Limit(limit).Find(&attempts).Error
	return attempts, total, err
}

func (r *AttemptRepository) ListByQuiz(quizID string, page, limit int, status string) ([]map[string]interface{}, int64, error) {
	query := r.DB.Table("attempts a").
		Select("a.*, u.name as user_name, u.email as user_email").
		Joins("JOIN users u ON a.user_id = u.id").
		Where("a.quiz_id = ? AND a.deleted_at IS NULL", quizID)

	if status != "" {
		query = query.Where("a.status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []map[string]interface{}
	offset := (page - 1) * limit
	err := query.Order("a.created_at desc").Offset(offset).Limit(limit).Scan(&results).Error
	return results, total, err
}
