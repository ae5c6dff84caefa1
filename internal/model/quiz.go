package model

import "encoding/json"

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
)

// AutoGradable reports whether answers of this type are scored by string
// comparison. Short-answer and essay questions always go to a coach.
func (t QuestionType) AutoGradable() bool {
	return t == MultipleChoice || t == TrueFalse
}

// swagger:model Quiz
type Quiz struct {
	UUIDBase
	Title        string `gorm:"size:200;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	CourseTag    string `gorm:"size:100;index" json:"courseTag"`
	TimeLimit    int    `gorm:"default:0" json:"timeLimit"`      // minutes, 0 = untimed
	PassingScore int    `gorm:"default:70" json:"passingScore"`  // percent
	IsPublished  bool   `gorm:"default:false" json:"isPublished"`
	CreatorID    uint   `gorm:"index" json:"creatorId"`
	Creator      *User  `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model Question
type Question struct {
	UUIDBase
	QuizID      string          `gorm:"index;type:varchar(36)" json:"quizId"`
	Type        QuestionType    `gorm:"size:20;not null" json:"type"`
	Content     string          `gorm:"type:text;not null" json:"content"`
	Options     json.RawMessage `gorm:"type:json" json:"options"` // ordered option texts, choice types only
	Answer      string          `gorm:"type:text" json:"-"`       // correct reference, never sent to students
	Points      int             `gorm:"default:1" json:"points"`
	Explanation string          `gorm:"type:text" json:"explanation,omitempty"`
	Order       int             `gorm:"default:0" json:"order"`
}

func (Question) TableName() string {
	return "questions"
}
