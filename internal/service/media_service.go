package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sports_academy_backend/internal/model"
	"sports_academy_backend/internal/repository"
	"sports_academy_backend/internal/util"
	"sports_academy_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MediaService struct {
	Media   *repository.MediaRepository
	Users   *UserService
	Storage *StorageService
}

func NewMediaService(media *repository.MediaRepository, users *UserService, storage *StorageService) *MediaService {
	return &MediaService{Media: media, Users: users, Storage: storage}
}

// UploadAvatar stores a profile image and points the user record at it.
func (s *MediaService) UploadAvatar(ctx context.Context, userID uint, originalName string, reader io.Reader) (*model.Media, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	allowed := false
	for _, e := range util.AllowedImageExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, util.ErrInvalidPayload
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	mimeType, err := util.ValidateMimeType(bytes.NewReader(data), []string{util.MimeImage})
	if err != nil {
		return nil, util.ErrInvalidPayload
	}

	filename := fmt.Sprintf("avatars/%s%s", model.GenerateUUID(), ext)

	url, err := s.Storage.Upload(ctx, filename, bytes.NewReader(data), int64(len(data)), mimeType)
	if err != nil {
		return nil, err
	}

	media := &model.Media{
		UserID:      userID,
		Kind:        model.MediaAvatar,
		FileName:    filename,
		URL:         url,
		ContentType: mimeType,
		Size:        int64(len(data)),
	}
	if err := s.Media.Create(media); err != nil {
		return nil, err
	}

	if err := s.Users.SetAvatar(userID, url); err != nil {
		return nil, err
	}
	return media, nil
}

// UploadHighlight stores a training highlight video. The upload is staged to
// a temp file so ffprobe can read duration and dimensions before the file
// moves to the configured storage backend.
func (s *MediaService) UploadHighlight(ctx context.Context, userID uint, originalName string, reader io.Reader, size int64) (*model.Media, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	allowed := false
	for _, e := range util.AllowedVideoExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, util.ErrInvalidPayload
	}

	tmp, err := os.CreateTemp("", "highlight-*"+ext)
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, reader)
	tmp.Close()
	if err != nil {
		return nil, err
	}

	info, err := util.GetVideoInfo(tmpPath)
	if err != nil {
		// Unprobeable uploads are rejected rather than stored blind.
		logger.Log.Warn("highlight probe failed", zap.String("file", originalName), zap.Error(err))
		return nil, util.ErrInvalidPayload
	}

	src, err := os.Open(tmpPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	id := model.GenerateUUID()
	filename := fmt.Sprintf("highlights/%d/%s%s", userID, id, ext)
	contentType := util.MimeVideo + strings.TrimPrefix(ext, ".")

	url, err := s.Storage.Upload(ctx, filename, src, written, contentType)
	if err != nil {
		return nil, err
	}

	// Best effort; a highlight without a thumbnail is still usable.
	thumbnail := ""
	thumbPath := tmpPath + ".jpg"
	if err := util.GenerateThumbnail(tmpPath, thumbPath, "00:00:01"); err == nil {
		defer os.Remove(thumbPath)
		if thumb, err := os.Open(thumbPath); err == nil {
			defer thumb.Close()
			if stat, err := thumb.Stat(); err == nil {
				thumbName := fmt.Sprintf("highlights/%d/%s.jpg", userID, id)
				if thumbURL, err := s.Storage.Upload(ctx, thumbName, thumb, stat.Size(), "image/jpeg"); err == nil {
					thumbnail = thumbURL
				}
			}
		}
	} else {
		logger.Log.Debug("thumbnail generation failed", zap.String("file", originalName), zap.Error(err))
	}

	media := &model.Media{
		UserID:      userID,
		Kind:        model.MediaHighlight,
		FileName:    filename,
		URL:         url,
		ContentType: contentType,
		Thumbnail:   thumbnail,
		Size:        written,
		Duration:    info.Duration,
		Width:       info.Width,
		Height:      info.Height,
	}
	if err := s.Media.Create(media); err != nil {
		return nil, err
	}
	if size > 0 && size != written {
		logger.Log.Debug("highlight size mismatch", zap.Int64("declared", size), zap.Int64("written", written))
	}
	return media, nil
}

func (s *MediaService) ListUserMedia(userID uint, kind model.MediaKind) ([]model.Media, error) {
	return s.Media.ListByUser(userID, kind)
}

// DeleteMedia removes a media record and its stored file. Only the owner or
// an admin may delete.
func (s *MediaService) DeleteMedia(ctx context.Context, mediaID string, userID uint, role model.UserRole) error {
	media, err := s.Media.FindByID(mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrMediaNotFound
		}
		return err
	}
	if media.UserID != userID && role != model.Admin {
		return util.ErrPermissionDenied
	}

	if err := s.Storage.Delete(ctx, media.FileName); err != nil {
		logger.Log.Warn("failed to delete stored file", zap.String("file", media.FileName), zap.Error(err))
	}
	return s.Media.Delete(mediaID)
}
