package transfer

import "time"

type PlatformOptions struct {
	ContentType string `json:"content_type"`
}

type SubmitRequest struct {
	VideoID         int64                      `json:"video_id"`
	Caption         string                     `json:"caption"`
	Hashtags        []string                   `json:"hashtags"`
	Platforms       []string                   `json:"platforms"`
	PlatformOptions map[string]PlatformOptions `json:"platform_options"`
	ScheduledFor    string                     `json:"scheduled_for"` // RFC 3339, schedule endpoint only
}

type TargetResult struct {
	Platform  string `json:"platform"`
	Status    string `json:"status"`
	ContentID string `json:"content_id,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Error     string `json:"error,omitempty"`
}

type SubmitResult struct {
	PostID         int64          `json:"post_id"`
	ProviderPostID string         `json:"provider_post_id"`
	Status         string         `json:"status"`
	ScheduledFor   *time.Time     `json:"scheduled_for,omitempty"`
	Platforms      []TargetResult `json:"platforms"`
}
