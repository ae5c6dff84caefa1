package service

import (
	"encoding/json"
	"errors"

	"sports_academy_backend/internal/model"
	"sports_academy_backend/internal/repository"
	"sports_academy_backend/internal/util"

	"gorm.io/gorm"
)

type QuizService struct {
	Repo *repository.QuizRepository
}

func NewQuizService(repo *repository.QuizRepository) *QuizService {
	return &QuizService{Repo: repo}
}

type QuizQuestionReq struct {
	ID          string          `json:"id"`
	Type        string          `json:"type" binding:"required"`
	Content     string          `json:"content" binding:"required"`
	Options     json.RawMessage `json:"options"`
	Answer      string          `json:"answer"`
	Points      int             `json:"points"`
	Explanation string          `json:"explanation"`
	Order       int             `json:"order"`
}

type QuizReq struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	CourseTag    *string            `json:"courseTag"`
	TimeLimit    *int               `json:"timeLimit"`
	PassingScore *int               `json:"passingScore"`
	IsPublished  *bool              `json:"isPublished"`
	Questions    *[]QuizQuestionReq `json:"questions"`
}

func validQuestionType(t string) bool {
	switch model.QuestionType(t) {
	case model.MultipleChoice, model.TrueFalse, model.ShortAnswer, model.Essay:
		return true
	}
	return false
}

func (s *QuizService) CreateQuiz(creatorID uint, req QuizReq) (*model.Quiz, error) {
	if req.Title == nil || *req.Title == "" {
		return nil, util.ErrInvalidPayload
	}

	quiz := &model.Quiz{
		Title:        *req.Title,
		CreatorID:    creatorID,
		PassingScore: DefaultPassingScore,
	}

	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.CourseTag != nil {
		quiz.CourseTag = *req.CourseTag
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}
	if req.PassingScore != nil && *req.PassingScore > 0 {
		quiz.PassingScore = *req.PassingScore
	}
	if req.IsPublished != nil {
		quiz.IsPublished = *req.IsPublished
	}

	if err := s.Repo.Create(quiz); err != nil {
		return nil, err
	}

	if req.Questions != nil {
		for _, qReq := range *req.Questions {
			q, err := questionFromReq(quiz.ID, qReq)
			if err != nil {
				return nil, err
			}
			if err := s.Repo.CreateQuestion(q); err != nil {
				return nil, err
			}
		}
	}

	return quiz, nil
}

// UpdateQuiz edits quiz metadata and, while no attempts exist, upserts the
// nested question set. Once a student has attempted the quiz the questions
// are frozen so existing grades keep their meaning.
func (s *QuizService) UpdateQuiz(quizID string, req QuizReq) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.CourseTag != nil {
		quiz.CourseTag = *req.CourseTag
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}
	if req.PassingScore != nil && *req.PassingScore > 0 {
		quiz.PassingScore = *req.PassingScore
	}
	if req.IsPublished != nil {
		quiz.IsPublished = *req.IsPublished
	}

	if req.Questions != nil {
		attempts, err := s.Repo.CountAttempts(quizID)
		if err != nil {
			return nil, err
		}
		if attempts > 0 {
			return nil, util.ErrQuizLocked
		}
	}

	if err := s.Repo.Update(quiz); err != nil {
		return nil, err
	}

	if req.Questions != nil {
		existingQs, _ := s.Repo.ListQuestions(quizID)
		existingMap := make(map[string]*model.Question)
		for i := range existingQs {
			existingMap[existingQs[i].ID] = &existingQs[i]
		}

		// A question id the quiz does not own is a malformed payload. Reject
		// it before touching any row so a bad entry cannot half-apply.
		for _, qReq := range *req.Questions {
			if qReq.ID != "" && existingMap[qReq.ID] == nil {
				return nil, util.ErrInvalidPayload
			}
		}

		keptIDs := make(map[string]bool)
		for _, qReq := range *req.Questions {
			if qReq.ID != "" {
				q := existingMap[qReq.ID]
				updated, err := questionFromReq(quizID, qReq)
				if err != nil {
					return nil, err
				}
				updated.UUIDBase = q.UUIDBase
				if err := s.Repo.UpdateQuestion(updated); err != nil {
					return nil, err
				}
				keptIDs[q.ID] = true
			} else {
				q, err := questionFromReq(quizID, qReq)
				if err != nil {
					return nil, err
				}
				if err := s.Repo.CreateQuestion(q); err != nil {
					return nil, err
				}
			}
		}

		for id := range existingMap {
			if !keptIDs[id] {
				s.Repo.DeleteQuestion(id)
			}
		}
	}

	return quiz, nil
}

func (s *QuizService) DeleteQuiz(quizID string) error {
	attempts, err := s.Repo.CountAttempts(quizID)
	if err != nil {
		return err
	}
	if attempts > 0 {
		return util.ErrQuizLocked
	}
	return s.Repo.Delete(quizID)
}

func (s *QuizService) GetQuiz(quizID string) (*model.Quiz, []model.Question, error) {
	quiz, err := s.Repo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrQuizNotFound
		}
		return nil, nil, err
	}
	qs, err := s.Repo.ListQuestions(quizID)
	return quiz, qs, err
}

// GetQuizForStudent returns a published quiz with its questions. Correct
// answers never serialize (json:"-" on the model), so the payload is safe to
// hand to a student mid-attempt.
func (s *QuizService) GetQuizForStudent(quizID string) (*model.Quiz, []model.Question, error) {
	quiz, qs, err := s.GetQuiz(quizID)
	if err != nil {
		return nil, nil, err
	}
	if !quiz.IsPublished {
		return nil, nil, util.ErrQuizNotPublished
	}
	return quiz, qs, nil
}

func (s *QuizService) ListQuizzes(page, limit int, courseTag string, publishedOnly bool) ([]repository.QuizListRow, int64, error) {
	return s.Repo.List(page, limit, courseTag, publishedOnly)
}

func questionFromReq(quizID string, req QuizQuestionReq) (*model.Question, error) {
	if !validQuestionType(req.Type) {
		return nil, util.ErrInvalidPayload
	}
	qt := model.QuestionType(req.Type)
	if qt.AutoGradable() && req.Answer == "" {
		return nil, util.ErrInvalidPayload
	}

	points := req.Points
	if points <= 0 {
		points = 1
	}

	return &model.Question{
		QuizID:      quizID,
		Type:        qt,
		Content:     req.Content,
		Options:     req.Options,
		Answer:      req.Answer,
		Points:      points,
		Explanation: req.Explanation,
		Order:       req.Order,
	}, nil
}
