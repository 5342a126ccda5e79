package models

import (
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID             int64          `db:"id" json:"id"`
	UserID         int64          `db:"user_id" json:"user_id"`
	VideoID        int64          `db:"video_id" json:"video_id"`
	Caption        string         `db:"caption" json:"caption"`
	Hashtags       pq.StringArray `db:"hashtags" json:"hashtags"`
	ThumbnailURL   string         `db:"thumbnail_url" json:"thumbnail_url"`
	ScheduledFor   *time.Time     `db:"scheduled_for" json:"scheduled_for,omitempty"`
	ProviderPostID string         `db:"provider_post_id" json:"provider_post_id"`
	Status         string         `db:"status" json:"status"` // pending, scheduled, published, failed
	PublishedAt    *time.Time     `db:"published_at" json:"published_at,omitempty"`
	Analytics      []byte         `db:"analytics" json:"analytics,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`

	Targets []*PostTarget `db:"-" json:"targets,omitempty"`
}

type PostTarget struct {
	PostID            int64     `db:"post_id" json:"post_id"`
	Platform          string    `db:"platform" json:"platform"`
	ProviderAccountID string    `db:"provider_account_id" json:"provider_account_id"`
	Status            string    `db:"status" json:"status"` // pending, scheduled, published, failed
	ContentID         string    `db:"content_id" json:"content_id"`
	Permalink         string    `db:"permalink" json:"permalink"`
	ErrorMessage      string    `db:"error_message" json:"error_message"`
	DisplayOrder      int       `db:"display_order" json:"display_order"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusPending   = "pending"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

const (
	TargetStatusPending   = "pending"
	TargetStatusScheduled = "scheduled"
	TargetStatusPublished = "published"
	TargetStatusFailed    = "failed"
)
