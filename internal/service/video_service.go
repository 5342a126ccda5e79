package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/postpilothq/postpilot/internal/apperr"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/provider"
	"github.com/postpilothq/postpilot/internal/repository"
)

type VideoService interface {
	Upload(ctx context.Context, userID int64, title string, file *multipart.FileHeader) (*models.Video, error)
	List(ctx context.Context, userID int64) ([]*models.Video, error)
	VideoInfo(ctx context.Context, videoID, userID int64) (*models.Video, error)
	Remove(ctx context.Context, userID, videoID int64) error
}

type videoService struct {
	vr      repository.VideoRepository
	gateway provider.Gateway
	r2      *R2Service
}

func NewVideoService(vr repository.VideoRepository, gateway provider.Gateway, r2 *R2Service) VideoService {
	return &videoService{
		vr:      vr,
		gateway: gateway,
		r2:      r2,
	}
}

// Upload streams the raw video bytes to the provider, which performs the
// actual ingestion. A local row tracks the upload; if the provider
// rejects it the row is deleted again so no video lingers without a
// provider-side attempt.
func (s *videoService) Upload(ctx context.Context, userID int64, title string, file *multipart.FileHeader) (*models.Video, error) {
	if file == nil {
		return nil, apperr.Validation("no file provided")
	}

	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, apperr.Validation("unsupported file type")
	}
	if fileType.Extension != "mp4" && fileType.Extension != "mov" {
		return nil, apperr.Validation("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	video := models.Video{
		UserID:       userID,
		Title:        title,
		FileName:     key,
		FileType:     fileType.MIME.Value,
		FileSize:     int64(len(fileBytes)),
		UploadStatus: models.UploadStatusUploading,
	}

	videoID, err := s.vr.Create(ctx, &video)
	if err != nil {
		return nil, fmt.Errorf("error creating video: %w", err)
	}

	result, err := s.gateway.UploadMedia(ctx, key, fileType.MIME.Value, fileBytes)
	if err != nil {
		if removeErr := s.vr.Remove(ctx, videoID); removeErr != nil {
			slog.Error("compensation failed; local video may be orphaned", "video_id", videoID, "err", removeErr)
		}
		return nil, err
	}

	thumbnailURL := result.ThumbnailURL
	if thumbnailURL != "" {
		if mirrored, err := s.r2.MirrorThumbnail(ctx, key, thumbnailURL); err == nil {
			thumbnailURL = mirrored
		} else {
			slog.Info("thumbnail mirror failed", "video_id", videoID, "err", err.Error())
		}
	}

	status := mapUploadStatus(result.Status)
	if err := s.vr.SetUploadResult(ctx, videoID, result.UploadID, result.DurationSeconds, thumbnailURL, status); err != nil {
		return nil, err
	}

	return s.vr.GetByID(ctx, videoID)
}

func (s *videoService) List(ctx context.Context, userID int64) ([]*models.Video, error) {
	videos, err := s.vr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing videos: %w", err)
	}
	return videos, nil
}

func (s *videoService) VideoInfo(ctx context.Context, videoID, userID int64) (*models.Video, error) {
	if userID == 0 {
		return nil, apperr.Validation("user is not valid")
	}
	if videoID == 0 {
		return nil, apperr.Validation("video id is not valid")
	}

	video, err := s.vr.GetOwned(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, apperr.NotFound("video %d not found", videoID)
	}
	return video, nil
}

func (s *videoService) Remove(ctx context.Context, userID, videoID int64) error {
	video, err := s.VideoInfo(ctx, videoID, userID)
	if err != nil {
		return err
	}

	if err := s.vr.Remove(ctx, video.ID); err != nil {
		return fmt.Errorf("error removing video: %w", err)
	}
	return nil
}
