package service

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"sports_academy_backend/internal/model"
	"sports_academy_backend/internal/repository"
	"sports_academy_backend/internal/util"
	"sports_academy_backend/pkg/logger"
	"sports_academy_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultPassingScore applies when a quiz has no configured threshold.
const DefaultPassingScore = 70

type GradingService struct {
	Attempts *repository.AttemptRepository
	Quizzes  *repository.QuizRepository
	Users    *repository.UserRepository
}

func NewGradingService(attempts *repository.AttemptRepository, quizzes *repository.QuizRepository, users *repository.UserRepository) *GradingService {
	return &GradingService{Attempts: attempts, Quizzes: quizzes, Users: users}
}

type SubmitAttemptReq struct {
	Answers    map[string]string `json:"answers"`
	TimeSpent  int               `json:"timeSpent"`
	AutoSubmit bool              `json:"autoSubmit"`
}

type GradeResult struct {
	AttemptID      string `json:"attemptId"`
	Score          int    `json:"score"`
	MaxScore       int    `json:"maxScore"`
	Percentage     int    `json:"percentage"`
	Passed         bool   `json:"passed"`
	CorrectCount   int    `json:"correctCount"`
	IncorrectCount int    `json:"incorrectCount"`
	PendingCount   int    `json:"pendingCount"`
	TimeSpent      int    `json:"timeSpent"`
	NeedsGrading   bool   `json:"needsGrading"`
	Feedback       string `json:"feedback"`
}

// StartAttempt opens an attempt against a published quiz. A student resumes
// their existing in-progress attempt instead of getting a second one.
func (s *GradingService) StartAttempt(userID uint, quizID string) (*model.Attempt, error) {
	quiz, err := s.Quizzes.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}

	if existing, err := s.Attempts.FindInProgress(userID, quizID); err == nil {
		return existing, nil
	}

	attempt := &model.Attempt{
		QuizID:    quizID,
		UserID:    userID,
		Status:    model.AttemptInProgress,
		StartedAt: time.Now(),
	}
	if err := s.Attempts.Create(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// SubmitAttempt grades a submission exactly once. Every question of the quiz
// gets a GradedAnswer, answered or not; missing entries count as blank.
// Choice and true/false questions are scored by case-insensitive trimmed
// comparison; short-answer and essay questions are never auto-scored and wait
// for a coach in the pending_review state.
func (s *GradingService) SubmitAttempt(userID uint, attemptID string, req SubmitAttemptReq) (*GradeResult, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.Status == model.AttemptCompleted {
		return nil, util.ErrAttemptCompleted
	}
	if req.TimeSpent < 0 {
		return nil, util.ErrInvalidPayload
	}

	quiz, err := s.Quizzes.FindByID(attempt.QuizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.Quizzes.ListQuestions(attempt.QuizID)
	if err != nil {
		return nil, err
	}

	result := &GradeResult{AttemptID: attempt.ID, TimeSpent: req.TimeSpent}
	answers := make([]model.GradedAnswer, 0, len(questions))

	for _, q := range questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		result.MaxScore += points

		submitted := strings.TrimSpace(req.Answers[q.ID])

		answer := model.GradedAnswer{
			AttemptID:      attempt.ID,
			QuestionID:     q.ID,
			QuestionType:   q.Type,
			Submitted:      submitted,
			PointsPossible: points,
		}

		if q.Type.AutoGradable() {
			if submitted != "" && strings.EqualFold(submitted, strings.TrimSpace(q.Answer)) {
				answer.Result = model.ResultCorrect
				answer.PointsEarned = points
				result.Score += points
				result.CorrectCount++
			} else {
				answer.Result = model.ResultIncorrect
				result.IncorrectCount++
			}
		} else {
			answer.Result = model.ResultPendingReview
			result.PendingCount++
			if submitted != "" {
				result.NeedsGrading = true
			}
		}

		answers = append(answers, answer)
	}

	result.Percentage = percentage(result.Score, result.MaxScore)
	result.Passed = result.Percentage >= passingScore(quiz)
	result.Feedback = feedbackFor(result.Percentage)

	rawAnswers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, util.ErrInvalidPayload
	}

	now := time.Now()
	attempt.CompletedAt = &now
	attempt.TimeSpent = req.TimeSpent
	attempt.Answers = rawAnswers
	attempt.Score = result.Score
	attempt.MaxScore = result.MaxScore
	attempt.Percentage = result.Percentage
	attempt.Passed = result.Passed
	attempt.AutoSubmitted = req.AutoSubmit
	attempt.NeedsGrading = result.NeedsGrading

	if err := s.Attempts.FinalizeWithAnswers(attempt, answers); err != nil {
		return nil, err
	}

	// Attempts with pending answers are counted once manual review
	// finishes, not here.
	if !result.NeedsGrading {
		monitoring.GradingCounter.WithLabelValues(strconv.FormatBool(result.Passed)).Inc()
	}

	// Best effort, outside the grading transaction.
	if result.Score > 0 {
		if err := s.Users.UpdateXP(userID, result.Score); err != nil {
			logger.Log.Warn("failed to award quiz XP",
				zap.Uint("user_id", userID), zap.String("attempt_id", attempt.ID), zap.Error(err))
		}
	}

	return result, nil
}

// ReviewAnswer applies a coach's manual grade to a pending free-text answer
// and re-aggregates the attempt. Any earned credit marks the answer correct;
// zero marks it incorrect.
func (s *GradingService) ReviewAnswer(attemptID, questionID string, pointsEarned int) (*model.Attempt, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	answer, err := s.Attempts.FindAnswer(attemptID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAnswerNotFound
		}
		return nil, err
	}
	if !answer.Result.Pending() {
		return nil, util.ErrAnswerNotPending
	}
	if pointsEarned < 0 || pointsEarned > answer.PointsPossible {
		return nil, util.ErrInvalidPayload
	}

	answer.PointsEarned = pointsEarned
	if pointsEarned > 0 {
		answer.Result = model.ResultCorrect
	} else {
		answer.Result = model.ResultIncorrect
	}

	quiz, err := s.Quizzes.FindByID(attempt.QuizID)
	if err != nil {
		return nil, err
	}

	wasPending := attempt.NeedsGrading

	// Aggregation runs over the answer rows as read inside the SaveReview
	// transaction, so concurrent reviews of the same attempt cannot lose
	// each other's points.
	err = s.Attempts.SaveReview(attempt, answer, func(answers []model.GradedAnswer) {
		score := 0
		pending := false
		for _, a := range answers {
			score += a.PointsEarned
			if a.Result.Pending() {
				pending = true
			}
		}
		attempt.Score = score
		attempt.Percentage = percentage(score, attempt.MaxScore)
		attempt.Passed = attempt.Percentage >= passingScore(quiz)
		attempt.NeedsGrading = pending
	})
	if err != nil {
		return nil, err
	}

	if wasPending && !attempt.NeedsGrading {
		monitoring.GradingCounter.WithLabelValues(strconv.FormatBool(attempt.Passed)).Inc()
	}

	// Reviewed points earn XP the same way auto-graded points do.
	if pointsEarned > 0 {
		if err := s.Users.UpdateXP(attempt.UserID, pointsEarned); err != nil {
			logger.Log.Warn("failed to award review XP",
				zap.Uint("user_id", attempt.UserID), zap.String("attempt_id", attempt.ID), zap.Error(err))
		}
	}

	return attempt, nil
}

type AttemptDetail struct {
	Attempt *model.Attempt       `json:"attempt"`
	Answers []model.GradedAnswer `json:"answers"`
}

// GetAttemptDetail returns an attempt with its graded answers. Students may
// only read their own attempts; coaches and admins read any.
func (s *GradingService) GetAttemptDetail(attemptID string, userID uint, role model.UserRole) (*AttemptDetail, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if role == model.Student && attempt.UserID != userID {
		return nil, util.ErrAttemptNotFound
	}

	answers, err := s.Attempts.ListAnswers(attemptID)
	if err != nil {
		return nil, err
	}
	return &AttemptDetail{Attempt: attempt, Answers: answers}, nil
}

func (s *GradingService) ListUserAttempts(userID uint, page, limit int) ([]model.Attempt, int64, error) {
	return s.Attempts.ListByUser(userID, page, limit)
}

func (s *GradingService) ListQuizAttempts(quizID string, page, limit int, status string) ([]map[string]interface{}, int64, error) {
	return s.Attempts.ListByQuiz(quizID, page, limit, status)
}

func percentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(maxScore)))
}

func passingScore(quiz *model.Quiz) int {
	if quiz.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return quiz.PassingScore
}

// feedbackFor maps the percentage to the product's fixed feedback bands.
func feedbackFor(pct int) string {
	switch {
	case pct >= 90:
		return "Outstanding work! You've mastered this material."
	case pct >= 80:
		return "Strong performance. A little more polish and you'll have it all."
	case pct >= 70:
		return "You passed. Review the questions you missed to tighten things up."
	default:
		return "Not quite there yet. Revisit the course material and try again."
	}
}
