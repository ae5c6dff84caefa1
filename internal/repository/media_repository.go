package repository

import (
	"sports_academy_backend/internal/model"

	"gorm.io/gorm"
)

type MediaRepository struct {
	DB *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{DB: db}
}

func (r *MediaRepository) Create(media *model.Media) error {
	return r.DB.Create(media).Error
}

func (r *MediaRepository) FindByID(id string) (*model.Media, error) {
	var media model.Media
	err := r.DB.First(&media, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *MediaRepository) ListByUser(userID uint, kind model.MediaKind) ([]model.Media, error) {
	query := r.DB.Where("user_id = ?", userID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	var media []model.Media
	err := query.Order("created_at desc").Find(&media).Error
	return media, err
}

func (r *MediaRepository) Delete(id string) error {
	return r.DB.Delete(&model.Media{}, "id = ?", id).Error
}
