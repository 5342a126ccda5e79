package models

import "time"

type Video struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	Title            string    `db:"title" json:"title"`
	FileName         string    `db:"file_name" json:"file_name"`
	FileType         string    `db:"file_type" json:"file_type"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	ProviderUploadID string    `db:"provider_upload_id" json:"provider_upload_id"`
	DurationSeconds  int       `db:"duration_seconds" json:"duration_seconds"`
	ThumbnailURL     string    `db:"thumbnail_url" json:"thumbnail_url"`
	UploadStatus     string    `db:"upload_status" json:"upload_status"` // uploading, completed, failed
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

const (
	UploadStatusUploading = "uploading"
	UploadStatusCompleted = "completed"
	UploadStatusFailed    = "failed"
)
