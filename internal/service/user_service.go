package service

import (
	"errors"

	"sports_academy_backend/internal/model"
	"sports_academy_backend/internal/repository"
	"sports_academy_backend/internal/util"

	"gorm.io/gorm"
)

type UserService struct {
	Repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{Repo: repo}
}

type UpdateProfileReq struct {
	Name  *string `json:"name"`
	Sport *string `json:"sport"`
}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.Repo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(userID uint, req UpdateProfileReq) (*model.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.Sport != nil {
		user.Sport = *req.Sport
	}

	if err := s.Repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) SetAvatar(userID uint, url string) error {
	user, err := s.GetProfile(userID)
	if err != nil {
		return err
	}
	user.Avatar = url
	return s.Repo.Update(user)
}

// Leaderboard returns the top students by accumulated XP.
func (s *UserService) Leaderboard(limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.Repo.FindTopByXP(limit)
}
