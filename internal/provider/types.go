package provider

import (
	"encoding/json"
	"time"
)

// Post lifecycle statuses reported by the publishing provider.
const (
	StatusDraft      = "DRAFT"
	StatusScheduled  = "SCHEDULED"
	StatusPosted     = "POSTED"
	StatusError      = "ERROR"
	StatusDeleted    = "DELETED"
	StatusProcessing = "PROCESSING"
)

const (
	AccountStatusConnected    = "CONNECTED"
	AccountStatusDisconnected = "DISCONNECTED"
)

const (
	UploadStatusProcessing = "PROCESSING"
	UploadStatusCompleted  = "COMPLETED"
	UploadStatusError      = "ERROR"
)

// PostRequest is the body of POST /post. Platforms is keyed by uppercase
// platform name. Immediate publication is expressed as a SCHEDULED post
// whose timestamp is one second in the past.
type PostRequest struct {
	Status      string         `json:"status"`
	ScheduledAt time.Time      `json:"scheduledAt"`
	Platforms   map[string]any `json:"platforms"`
}

type PlatformResult struct {
	Status    string `json:"status"`
	ContentID string `json:"contentId"`
	Permalink string `json:"permalink"`
	Error     string `json:"error"`
}

type PostResult struct {
	ID          string                    `json:"id"`
	Status      string                    `json:"status"`
	ScheduledAt *time.Time                `json:"scheduledAt"`
	Platforms   map[string]PlatformResult `json:"platforms"`
	Analytics   json.RawMessage           `json:"analytics"`
}

type UploadResult struct {
	UploadID        string `json:"uploadId"`
	Status          string `json:"status"`
	DurationSeconds int    `json:"durationSeconds"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	Title           string `json:"title"`
}

type AccountResult struct {
	ID        string `json:"id"`
	Platform  string `json:"platform"`
	Status    string `json:"status"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *errorBody) text() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}
	return e.Message
}
