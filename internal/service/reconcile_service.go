package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/postpilothq/postpilot/internal/apperr"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/provider"
	"github.com/postpilothq/postpilot/internal/repository"
)

// ReconcileService converges local state with the provider, which is the
// source of truth for delivery outcome. Every refresh is best-effort:
// polling failures are logged and swallowed so reads never block on the
// provider being reachable.
type ReconcileService interface {
	RefreshPost(ctx context.Context, postID int64) (*models.Post, error)
	RefreshAccount(ctx context.Context, accountID int64) (*models.SocialAccount, error)
	RefreshUpload(ctx context.Context, videoID int64) (*models.Video, error)
}

type reconcileService struct {
	pr      repository.PostRepository
	pt      repository.PostTargetRepository
	vr      repository.VideoRepository
	sa      repository.SocialAccountRepository
	gateway provider.Gateway
	r2      *R2Service
}

func NewReconcileService(
	pr repository.PostRepository,
	pt repository.PostTargetRepository,
	vr repository.VideoRepository,
	sa repository.SocialAccountRepository,
	gateway provider.Gateway,
	r2 *R2Service) ReconcileService {
	return &reconcileService{
		pr:      pr,
		pt:      pt,
		vr:      vr,
		sa:      sa,
		gateway: gateway,
		r2:      r2,
	}
}

func (s *reconcileService) RefreshPost(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post %d not found", postID)
	}
	if post.ProviderPostID == "" {
		return s.withTargets(ctx, post)
	}

	result, err := s.gateway.FetchPost(ctx, post.ProviderPostID)
	if err != nil {
		slog.Info("post reconciliation failed", "post_id", postID, "err",
			apperr.Wrap(apperr.KindReconciliation, err, "refresh post %d", postID).Error())
		return s.withTargets(ctx, post)
	}

	if err := s.applyPostResult(ctx, post, result); err != nil {
		return nil, err
	}

	s.refreshAnalytics(ctx, post)

	updated, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.withTargets(ctx, updated)
}

func (s *reconcileService) applyPostResult(ctx context.Context, post *models.Post, result *provider.PostResult) error {
	status, publishedAt := mapBundleStatus(result.Status, timeNow)
	if publishedAt == nil {
		publishedAt = post.PublishedAt
	}

	if status != post.Status || post.PublishedAt == nil && publishedAt != nil {
		if err := s.pr.UpdateSubmitted(ctx, post.ID, post.ProviderPostID, status, publishedAt); err != nil {
			return err
		}
	}

	for name, pr := range result.Platforms {
		platform := strings.ToLower(name)
		targetStatus := mapTargetStatus(pr.Status)
		if err := s.pt.UpdateResult(ctx, post.ID, platform, targetStatus, pr.ContentID, pr.Permalink, pr.Error); err != nil {
			return err
		}
	}
	return nil
}

func (s *reconcileService) refreshAnalytics(ctx context.Context, post *models.Post) {
	analytics, err := s.gateway.FetchPostAnalytics(ctx, post.ProviderPostID)
	if err != nil {
		slog.Info("analytics refresh failed", "post_id", post.ID, "err", err.Error())
		return
	}
	if err := s.pr.SetAnalytics(ctx, post.ID, analytics); err != nil {
		slog.Info("failed to store analytics snapshot", "post_id", post.ID, "err", err.Error())
	}
}

func (s *reconcileService) RefreshAccount(ctx context.Context, accountID int64) (*models.SocialAccount, error) {
	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.NotFound("social account %d not found", accountID)
	}

	result, err := s.gateway.FetchAccount(ctx, account.ProviderAccountID)
	if err != nil {
		slog.Info("account reconciliation failed", "account_id", accountID, "err", err.Error())
		return account, nil
	}

	connected := result.Status == provider.AccountStatusConnected
	if connected != account.IsConnected {
		if err := s.sa.SetConnected(ctx, accountID, connected); err != nil {
			return nil, err
		}
		account.IsConnected = connected
	}
	return account, nil
}

func (s *reconcileService) RefreshUpload(ctx context.Context, videoID int64) (*models.Video, error) {
	video, err := s.vr.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, apperr.NotFound("video %d not found", videoID)
	}
	if video.ProviderUploadID == "" || video.UploadStatus == models.UploadStatusCompleted {
		return video, nil
	}

	result, err := s.gateway.FetchUpload(ctx, video.ProviderUploadID)
	if err != nil {
		slog.Info("upload reconciliation failed", "video_id", videoID, "err", err.Error())
		return video, nil
	}

	status := mapUploadStatus(result.Status)
	thumbnailURL := s.mirrorThumbnail(ctx, video, result.ThumbnailURL)

	if err := s.vr.SetUploadResult(ctx, videoID, video.ProviderUploadID, result.DurationSeconds, thumbnailURL, status); err != nil {
		return nil, err
	}
	return s.vr.GetByID(ctx, videoID)
}

// mirrorThumbnail copies the provider's thumbnail into R2 so the UI is
// not hotlinking the provider CDN. Falls back to the provider URL.
func (s *reconcileService) mirrorThumbnail(ctx context.Context, video *models.Video, thumbnailURL string) string {
	if thumbnailURL == "" || thumbnailURL == video.ThumbnailURL {
		return video.ThumbnailURL
	}
	mirrored, err := s.r2.MirrorThumbnail(ctx, video.FileName, thumbnailURL)
	if err != nil {
		slog.Info("thumbnail mirror failed", "video_id", video.ID, "err", err.Error())
		return thumbnailURL
	}
	return mirrored
}

func mapUploadStatus(providerStatus string) string {
	switch providerStatus {
	case provider.UploadStatusCompleted:
		return models.UploadStatusCompleted
	case provider.UploadStatusError:
		return models.UploadStatusFailed
	default:
		return models.UploadStatusUploading
	}
}

func (s *reconcileService) withTargets(ctx context.Context, post *models.Post) (*models.Post, error) {
	targets, err := s.pt.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Targets = targets
	return post, nil
}
