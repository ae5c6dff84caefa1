package model

import (
	"encoding/json"
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// AnswerResult is the three-valued outcome of grading one question.
// pending_review marks free-text answers waiting on a coach; it is a
// distinct state, not a nullable bool, so the manual path is explicit.
type AnswerResult string

const (
	ResultCorrect       AnswerResult = "correct"
	ResultIncorrect     AnswerResult = "incorrect"
	ResultPendingReview AnswerResult = "pending_review"
)

func (r AnswerResult) Pending() bool {
	return r == ResultPendingReview
}

// swagger:model Attempt
type Attempt struct {
	UUIDBase
	QuizID        string          `gorm:"index;type:varchar(36)" json:"quizId"`
	Quiz          *Quiz           `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	UserID        uint            `gorm:"index" json:"userId"`
	User          *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status        AttemptStatus   `gorm:"size:20;default:'in_progress'" json:"status"`
	StartedAt     time.Time       `json:"startedAt"`
	CompletedAt   *time.Time      `json:"completedAt"`
	TimeSpent     int             `json:"timeSpent"` // seconds
	Answers       json.RawMessage `gorm:"type:json" json:"answers"` // raw submitted mapping, question id -> value
	Score         int             `json:"score"`
	MaxScore      int             `json:"maxScore"`
	Percentage    int             `json:"percentage"`
	Passed        bool            `json:"passed"`
	AutoSubmitted bool            `json:"autoSubmitted"`
	NeedsGrading  bool            `json:"needsGrading"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// swagger:model GradedAnswer
type GradedAnswer struct {
	UUIDBase
	AttemptID      string       `gorm:"index;type:varchar(36)" json:"attemptId"`
	QuestionID     string       `gorm:"index;type:varchar(36)" json:"questionId"`
	QuestionType   QuestionType `gorm:"size:20" json:"questionType"`
	Submitted      string       `gorm:"type:text" json:"submitted"`
	Result         AnswerResult `gorm:"size:20" json:"result"`
	PointsEarned   int          `json:"pointsEarned"`
	PointsPossible int          `json:"pointsPossible"`
}

func (GradedAnswer) TableName() string {
	return "graded_answers"
}
