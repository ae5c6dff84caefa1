package service

import (
	"fmt"
	"testing"

	"sports_academy_backend/internal/model"
	"sports_academy_backend/internal/repository"
	"sports_academy_backend/internal/util"
	"sports_academy_backend/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.GradedAnswer{},
	))
	return db
}

func newGradingService(t *testing.T) (*GradingService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewGradingService(
		repository.NewAttemptRepository(db),
		repository.NewQuizRepository(db),
		repository.NewUserRepository(db),
	)
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := &model.User{Name: "Riley", Email: fmt.Sprintf("%s@test.local", t.Name()), Password: "x", Role: model.Student}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedQuiz(t *testing.T, db *gorm.DB, passingScore int, questions ...model.Question) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{Title: "Nutrition basics", PassingScore: passingScore, IsPublished: true}
	require.NoError(t, db.Create(quiz).Error)
	for i := range questions {
		questions[i].QuizID = quiz.ID
		questions[i].Order = i
		require.NoError(t, db.Create(&questions[i]).Error)
	}
	return quiz
}

func startAttempt(t *testing.T, svc *GradingService, userID uint, quizID string) *model.Attempt {
	t.Helper()
	attempt, err := svc.StartAttempt(userID, quizID)
	require.NoError(t, err)
	return attempt
}

func TestStartAttemptRequiresPublishedQuiz(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)

	quiz := &model.Quiz{Title: "Draft", IsPublished: false}
	require.NoError(t, db.Create(quiz).Error)

	_, err := svc.StartAttempt(user.ID, quiz.ID)
	assert.ErrorIs(t, err, util.ErrQuizNotPublished)

	_, err = svc.StartAttempt(user.ID, "no-such-quiz")
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestStartAttemptResumesInProgress(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "Water is wet", Answer: "true", Points: 1},
	)

	first := startAttempt(t, svc, user.ID, quiz.ID)
	second := startAttempt(t, svc, user.ID, quiz.ID)
	assert.Equal(t, first.ID, second.ID)
}

func TestSubmitAttemptScoresAutoGradableQuestions(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.MultipleChoice, Content: "Best recovery drink?", Answer: "Water", Points: 2},
		model.Question{UUIDBase: model.UUIDBase{ID: "q2"}, Type: model.TrueFalse, Content: "Stretching prevents all injuries", Answer: "false", Points: 1},
		model.Question{UUIDBase: model.UUIDBase{ID: "q3"}, Type: model.MultipleChoice, Content: "Sets in a superset?", Answer: "2", Points: 1},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	// Case and surrounding whitespace must not matter; q3 is left unanswered.
	result, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{
			"q1": "  WATER ",
			"q2": "False",
		},
		TimeSpent: 120,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Score)
	assert.Equal(t, 4, result.MaxScore)
	assert.Equal(t, 75, result.Percentage)
	assert.True(t, result.Passed)
	assert.Equal(t, 2, result.CorrectCount)
	assert.Equal(t, 1, result.IncorrectCount)
	assert.Equal(t, 0, result.PendingCount)
	assert.False(t, result.NeedsGrading)

	// Every question gets a graded answer, answered or not, and the
	// per-answer points always sum to the attempt score.
	var answers []model.GradedAnswer
	require.NoError(t, db.Where("attempt_id = ?", attempt.ID).Find(&answers).Error)
	require.Len(t, answers, 3)

	sum := 0
	for _, a := range answers {
		sum += a.PointsEarned
		if a.QuestionID == "q3" {
			assert.Equal(t, model.ResultIncorrect, a.Result)
			assert.Empty(t, a.Submitted)
		}
	}
	assert.Equal(t, result.Score, sum)
}

func TestSubmitAttemptPercentageRounding(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.MultipleChoice, Content: "a", Answer: "yes", Points: 17},
		model.Question{UUIDBase: model.UUIDBase{ID: "q2"}, Type: model.MultipleChoice, Content: "b", Answer: "yes", Points: 3},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	result, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "yes", "q2": "no"},
	})
	require.NoError(t, err)

	assert.Equal(t, 17, result.Score)
	assert.Equal(t, 20, result.MaxScore)
	assert.Equal(t, 85, result.Percentage)
}

func TestSubmitAttemptPassBoundary(t *testing.T) {
	cases := []struct {
		name    string
		correct int
		passed  bool
		pct     int
	}{
		{"exactly at threshold", 7, true, 70},
		{"just below threshold", 6, false, 60},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, db := newGradingService(t)
			user := seedUser(t, db)

			questions := make([]model.Question, 10)
			answers := map[string]string{}
			for i := range questions {
				id := fmt.Sprintf("q%d", i)
				questions[i] = model.Question{UUIDBase: model.UUIDBase{ID: id}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 1}
				if i < tc.correct {
					answers[id] = "true"
				} else {
					answers[id] = "false"
				}
			}
			quiz := seedQuiz(t, db, 70, questions...)
			attempt := startAttempt(t, svc, user.ID, quiz.ID)

			result, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{Answers: answers})
			require.NoError(t, err)
			assert.Equal(t, tc.pct, result.Percentage)
			assert.Equal(t, tc.passed, result.Passed)
		})
	}
}

func TestSubmitAttemptManualReviewQuestions(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.ShortAnswer, Content: "Describe your warmup", Points: 5},
		model.Question{UUIDBase: model.UUIDBase{ID: "q2"}, Type: model.Essay, Content: "Season goals", Points: 10},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	result, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "Jog and dynamic stretches"},
	})
	require.NoError(t, err)

	// Free-text answers are never auto-scored.
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 15, result.MaxScore)
	assert.Equal(t, 0, result.Percentage)
	assert.False(t, result.Passed)
	assert.Equal(t, 2, result.PendingCount)
	assert.True(t, result.NeedsGrading)

	var answers []model.GradedAnswer
	require.NoError(t, db.Where("attempt_id = ?", attempt.ID).Find(&answers).Error)
	for _, a := range answers {
		assert.Equal(t, model.ResultPendingReview, a.Result)
	}
}

func TestSubmitAttemptBlankManualAnswersNeedNoGrading(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.Essay, Content: "Optional notes", Points: 5},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	result, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "   "},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.PendingCount)
	assert.False(t, result.NeedsGrading)
}

func TestSubmitAttemptEmptyQuiz(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	result, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.MaxScore)
	assert.Equal(t, 0, result.Percentage)
	assert.False(t, result.Passed)
}

func TestSubmitAttemptTwiceConflicts(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 1},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	first, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "true"},
	})
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "false"},
	})
	assert.ErrorIs(t, err, util.ErrAttemptCompleted)

	// The first grade is untouched by the rejected resubmission.
	var stored model.Attempt
	require.NoError(t, db.First(&stored, "id = ?", attempt.ID).Error)
	assert.Equal(t, first.Score, stored.Score)
	assert.Equal(t, model.AttemptCompleted, stored.Status)

	var count int64
	require.NoError(t, db.Model(&model.GradedAnswer{}).Where("attempt_id = ?", attempt.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitAttemptOwnership(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 1},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	_, err := svc.SubmitAttempt(user.ID+1, attempt.ID, SubmitAttemptReq{})
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)
}

func TestSubmitAttemptRejectsNegativeTimeSpent(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 1},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	_, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{TimeSpent: -1})
	assert.ErrorIs(t, err, util.ErrInvalidPayload)
}

func TestSubmitAttemptAwardsXP(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 3},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	_, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "true"},
	})
	require.NoError(t, err)

	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, 3, stored.XP)
}

func TestReviewAnswerReaggregatesAttempt(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 5},
		model.Question{UUIDBase: model.UUIDBase{ID: "q2"}, Type: model.ShortAnswer, Content: "Explain", Points: 5},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	result, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "true", "q2": "Because reasons"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Score)
	assert.True(t, result.NeedsGrading)
	assert.False(t, result.Passed) // 50% until the pending answer is graded

	reviewed, err := svc.ReviewAnswer(attempt.ID, "q2", 4)
	require.NoError(t, err)
	assert.Equal(t, 9, reviewed.Score)
	assert.Equal(t, 90, reviewed.Percentage)
	assert.True(t, reviewed.Passed)
	assert.False(t, reviewed.NeedsGrading)

	var answer model.GradedAnswer
	require.NoError(t, db.Where("attempt_id = ? AND question_id = ?", attempt.ID, "q2").First(&answer).Error)
	assert.Equal(t, model.ResultCorrect, answer.Result)
	assert.Equal(t, 4, answer.PointsEarned)
}

func TestReviewAnswerAwardsXP(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.Essay, Content: "Explain", Points: 5},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	_, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "solid answer"},
	})
	require.NoError(t, err)

	// Nothing auto-graded, so no XP yet.
	var stored model.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, 0, stored.XP)

	_, err = svc.ReviewAnswer(attempt.ID, "q1", 4)
	require.NoError(t, err)

	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, 4, stored.XP)
}

func gradingCounterTotal(t *testing.T) float64 {
	t.Helper()
	return testutil.ToFloat64(monitoring.GradingCounter.WithLabelValues("true")) +
		testutil.ToFloat64(monitoring.GradingCounter.WithLabelValues("false"))
}

func TestGradingMetricCountsAttemptOnce(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 5},
		model.Question{UUIDBase: model.UUIDBase{ID: "q2"}, Type: model.Essay, Content: "Explain", Points: 5},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	before := gradingCounterTotal(t)

	// The attempt still needs manual grading, so submission alone must
	// not count it.
	result, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "true", "q2": "some text"},
	})
	require.NoError(t, err)
	require.True(t, result.NeedsGrading)
	assert.Equal(t, before, gradingCounterTotal(t))

	// The review settles the grade; exactly one attempt is counted.
	reviewed, err := svc.ReviewAnswer(attempt.ID, "q2", 5)
	require.NoError(t, err)
	require.False(t, reviewed.NeedsGrading)
	assert.Equal(t, before+1, gradingCounterTotal(t))
}

func TestGradingMetricCountsAutoGradedSubmit(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 1},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	before := gradingCounterTotal(t)
	_, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "true"},
	})
	require.NoError(t, err)
	assert.Equal(t, before+1, gradingCounterTotal(t))
}

func TestReviewAnswerZeroPointsMarksIncorrect(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.Essay, Content: "Explain", Points: 5},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	_, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "weak answer"},
	})
	require.NoError(t, err)

	reviewed, err := svc.ReviewAnswer(attempt.ID, "q1", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, reviewed.Score)

	var answer model.GradedAnswer
	require.NoError(t, db.Where("attempt_id = ? AND question_id = ?", attempt.ID, "q1").First(&answer).Error)
	assert.Equal(t, model.ResultIncorrect, answer.Result)
}

func TestReviewAnswerAccumulatesAcrossReviews(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.ShortAnswer, Content: "a", Points: 5},
		model.Question{UUIDBase: model.UUIDBase{ID: "q2"}, Type: model.ShortAnswer, Content: "b", Points: 5},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	_, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "first", "q2": "second"},
	})
	require.NoError(t, err)

	// Each review re-reads every answer row, so the second grade builds on
	// the first instead of replacing it.
	mid, err := svc.ReviewAnswer(attempt.ID, "q1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, mid.Score)
	assert.True(t, mid.NeedsGrading)

	final, err := svc.ReviewAnswer(attempt.ID, "q2", 5)
	require.NoError(t, err)
	assert.Equal(t, 8, final.Score)
	assert.Equal(t, 80, final.Percentage)
	assert.True(t, final.Passed)
	assert.False(t, final.NeedsGrading)
}

func TestReviewAnswerValidation(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 2},
		model.Question{UUIDBase: model.UUIDBase{ID: "q2"}, Type: model.Essay, Content: "Explain", Points: 5},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)

	_, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "true", "q2": "text"},
	})
	require.NoError(t, err)

	_, err = svc.ReviewAnswer(attempt.ID, "q2", 6)
	assert.ErrorIs(t, err, util.ErrInvalidPayload)

	_, err = svc.ReviewAnswer(attempt.ID, "q2", -1)
	assert.ErrorIs(t, err, util.ErrInvalidPayload)

	// Auto-graded answers are not reviewable.
	_, err = svc.ReviewAnswer(attempt.ID, "q1", 1)
	assert.ErrorIs(t, err, util.ErrAnswerNotPending)

	_, err = svc.ReviewAnswer(attempt.ID, "nope", 1)
	assert.ErrorIs(t, err, util.ErrAnswerNotFound)
}

func TestGetAttemptDetailAccess(t *testing.T) {
	svc, db := newGradingService(t)
	user := seedUser(t, db)
	quiz := seedQuiz(t, db, 70,
		model.Question{UUIDBase: model.UUIDBase{ID: "q1"}, Type: model.TrueFalse, Content: "x", Answer: "true", Points: 1},
	)
	attempt := startAttempt(t, svc, user.ID, quiz.ID)
	_, err := svc.SubmitAttempt(user.ID, attempt.ID, SubmitAttemptReq{
		Answers: map[string]string{"q1": "true"},
	})
	require.NoError(t, err)

	detail, err := svc.GetAttemptDetail(attempt.ID, user.ID, model.Student)
	require.NoError(t, err)
	assert.Len(t, detail.Answers, 1)

	_, err = svc.GetAttemptDetail(attempt.ID, user.ID+1, model.Student)
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)

	// Coaches read any attempt.
	_, err = svc.GetAttemptDetail(attempt.ID, user.ID+1, model.Coach)
	require.NoError(t, err)
}
