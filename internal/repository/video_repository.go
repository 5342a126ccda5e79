package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Video, error)
	GetOwned(ctx context.Context, id, userID int64) (*models.Video, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Video, error)
	SetUploadResult(ctx context.Context, id int64, uploadID string, durationSeconds int, thumbnailURL, status string) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Remove(ctx context.Context, id int64) error
}

type videoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) VideoRepository {
	return &videoRepository{db: db}
}

const videoColumns = `id, user_id, title, file_name, file_type, file_size, provider_upload_id, duration_seconds, thumbnail_url, upload_status, created_at, updated_at`

func (r *videoRepository) Create(ctx context.Context, video *models.Video) (int64, error) {
	query := `
		INSERT INTO videos (user_id, title, file_name, file_type, file_size, upload_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, video.UserID, video.Title, video.FileName, video.FileType, video.FileSize, video.UploadStatus).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *videoRepository) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *videoRepository) GetOwned(ctx context.Context, id, userID int64) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1 AND user_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *videoRepository) scanOne(row *sql.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.FileName, &v.FileType, &v.FileSize,
		&v.ProviderUploadID, &v.DurationSeconds, &v.ThumbnailURL, &v.UploadStatus, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &v, nil
}

func (r *videoRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		var v models.Video
		err := rows.Scan(&v.ID, &v.UserID, &v.Title, &v.FileName, &v.FileType, &v.FileSize,
			&v.ProviderUploadID, &v.DurationSeconds, &v.ThumbnailURL, &v.UploadStatus, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		videos = append(videos, &v)
	}
	return videos, nil
}

func (r *videoRepository) SetUploadResult(ctx context.Context, id int64, uploadID string, durationSeconds int, thumbnailURL, status string) error {
	query := `
		UPDATE videos
		SET provider_upload_id = $1,
			duration_seconds = $2,
			thumbnail_url = $3,
			upload_status = $4,
			updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, uploadID, durationSeconds, thumbnailURL, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *videoRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE videos SET upload_status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *videoRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM videos WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
