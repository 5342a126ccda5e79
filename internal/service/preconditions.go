package service

import (
	"context"
	"strings"

	"github.com/postpilothq/postpilot/internal/apperr"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
)

// ValidatedSubmission is the read-side bundle a submission needs: the
// owned video and one connected account per requested platform.
type ValidatedSubmission struct {
	Video    *models.Video
	Accounts map[string]*models.SocialAccount
}

// PreconditionValidator gates submissions. It has no side effects: every
// check is a read, and a rejection leaves nothing behind.
type PreconditionValidator struct {
	vr repository.VideoRepository
	sa repository.SocialAccountRepository
}

func NewPreconditionValidator(vr repository.VideoRepository, sa repository.SocialAccountRepository) *PreconditionValidator {
	return &PreconditionValidator{vr: vr, sa: sa}
}

func (v *PreconditionValidator) Validate(ctx context.Context, userID, videoID int64, platformNames []string) (*ValidatedSubmission, error) {
	video, err := v.vr.GetOwned(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, apperr.NotFound("video %d not found", videoID)
	}
	if video.ProviderUploadID == "" || video.UploadStatus != models.UploadStatusCompleted {
		return nil, apperr.Precondition("video %d has no completed provider upload", videoID)
	}

	accounts, err := v.sa.FindConnected(ctx, userID, platformNames)
	if err != nil {
		return nil, err
	}

	byPlatform := make(map[string]*models.SocialAccount, len(accounts))
	for _, acc := range accounts {
		byPlatform[acc.Platform] = acc
	}

	var missing []string
	for _, name := range platformNames {
		if _, ok := byPlatform[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Precondition("no connected account for platforms: %s", strings.Join(missing, ", "))
	}

	return &ValidatedSubmission{Video: video, Accounts: byPlatform}, nil
}
