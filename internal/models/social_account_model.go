package models

import "time"

type SocialAccount struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	Platform          string    `db:"platform" json:"platform"`
	ProviderAccountID string    `db:"provider_account_id" json:"provider_account_id"`
	AccountName       string    `db:"account_name" json:"account_name"`
	AccountUsername   string    `db:"account_username" json:"account_username"`
	ProfilePicture    string    `db:"profile_picture_url" json:"profile_picture"`
	IsConnected       bool      `db:"is_connected" json:"is_connected"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PlatformInstagram = "instagram"
	PlatformTiktok    = "tiktok"
	PlatformYoutube   = "youtube"
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformLinkedin  = "linkedin"
)
