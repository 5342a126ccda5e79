package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/postpilothq/postpilot/internal/apperr"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/internal/provider"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/transfer"
)

type PublishService interface {
	SubmitImmediate(ctx context.Context, userID int64, req *transfer.SubmitRequest) (*transfer.SubmitResult, error)
	SubmitScheduled(ctx context.Context, userID int64, req *transfer.SubmitRequest) (*transfer.SubmitResult, error)
	Update(ctx context.Context, userID, postID int64, req *transfer.SubmitRequest) error
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type publishService struct {
	db        *sql.DB
	pr        repository.PostRepository
	pt        repository.PostTargetRepository
	u         repository.UserRepository
	validator *PreconditionValidator
	gateway   provider.Gateway
	now       func() time.Time
}

func NewPublishService(
	db *sql.DB,
	pr repository.PostRepository,
	pt repository.PostTargetRepository,
	u repository.UserRepository,
	validator *PreconditionValidator,
	gateway provider.Gateway) PublishService {
	return &publishService{
		db:        db,
		pr:        pr,
		pt:        pt,
		u:         u,
		validator: validator,
		gateway:   gateway,
		now:       time.Now,
	}
}

func (s *publishService) SubmitImmediate(ctx context.Context, userID int64, req *transfer.SubmitRequest) (*transfer.SubmitResult, error) {
	return s.submit(ctx, userID, req, nil)
}

func (s *publishService) SubmitScheduled(ctx context.Context, userID int64, req *transfer.SubmitRequest) (*transfer.SubmitResult, error) {
	scheduledFor, err := time.Parse(time.RFC3339, req.ScheduledFor)
	if err != nil {
		return nil, apperr.Validation("invalid scheduled_for: %v", err)
	}
	if !scheduledFor.After(s.now()) {
		return nil, apperr.Validation("scheduled_for must be in the future")
	}
	return s.submit(ctx, userID, req, &scheduledFor)
}

// submit is the single driver behind both entry points. The two paths
// differ only in the initial target status and the provider call:
// validate, build payloads, persist locally, submit, map the result. If
// the provider rejects the submission the local record is deleted again
// (compensation) so no post survives without a provider-side attempt.
func (s *publishService) submit(ctx context.Context, userID int64, req *transfer.SubmitRequest, scheduledFor *time.Time) (*transfer.SubmitResult, error) {
	if req == nil || req.Caption == "" {
		return nil, apperr.Validation("caption cannot be empty")
	}
	if len(req.Platforms) == 0 {
		return nil, apperr.Validation("no platforms selected")
	}

	bundle, err := s.validator.Validate(ctx, userID, req.VideoID, req.Platforms)
	if err != nil {
		return nil, err
	}

	payloads := buildPayloads(bundle.Video, req)

	targetStatus := models.TargetStatusPending
	if scheduledFor != nil {
		targetStatus = models.TargetStatusScheduled
	}

	postID, err := s.createLocalPost(ctx, userID, req, bundle, scheduledFor, targetStatus)
	if err != nil {
		return nil, err
	}

	var result *provider.PostResult
	if scheduledFor != nil {
		result, err = s.gateway.SubmitScheduledPost(ctx, payloads, *scheduledFor)
	} else {
		result, err = s.gateway.SubmitImmediatePost(ctx, payloads)
	}
	if err != nil {
		s.compensate(ctx, userID, postID)
		return nil, err
	}

	post, err := s.commitResult(ctx, userID, postID, result)
	if err != nil {
		return nil, err
	}

	return submitResult(post), nil
}

func buildPayloads(video *models.Video, req *transfer.SubmitRequest) map[string]any {
	payloads := make(map[string]any, len(req.Platforms))
	for _, name := range req.Platforms {
		opts := req.PlatformOptions[strings.ToLower(name)]
		payloads[strings.ToUpper(name)] = platforms.BuildPayload(name, platforms.Input{
			Video: platforms.Video{
				UploadID:        video.ProviderUploadID,
				DurationSeconds: video.DurationSeconds,
				Title:           video.Title,
			},
			Caption:  req.Caption,
			Hashtags: req.Hashtags,
			Options:  platforms.Options{ContentType: opts.ContentType},
		})
	}
	return payloads
}

func (s *publishService) createLocalPost(
	ctx context.Context,
	userID int64,
	req *transfer.SubmitRequest,
	bundle *ValidatedSubmission,
	scheduledFor *time.Time,
	targetStatus string) (int64, error) {

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		UserID:       userID,
		VideoID:      bundle.Video.ID,
		Caption:      req.Caption,
		Hashtags:     req.Hashtags,
		ThumbnailURL: bundle.Video.ThumbnailURL,
		ScheduledFor: scheduledFor,
		Status:       models.PostStatusPending,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, fmt.Errorf("error creating post: %w", err)
	}

	for i, name := range req.Platforms {
		platform := strings.ToLower(name)
		target := models.PostTarget{
			PostID:            postID,
			Platform:          platform,
			ProviderAccountID: bundle.Accounts[platform].ProviderAccountID,
			Status:            targetStatus,
			DisplayOrder:      i,
		}
		if err = s.pt.Create(ctx, tx, &target); err != nil {
			return 0, fmt.Errorf("error saving target %s: %w", platform, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return postID, nil
}

// compensate undoes the local create after a provider failure. Targets
// and the post index row go with the post row.
func (s *publishService) compensate(ctx context.Context, userID, postID int64) {
	if err := s.pr.Remove(ctx, nil, postID); err != nil {
		slog.Error("compensation failed; local post may be orphaned", "post_id", postID, "err", err)
	}
	if err := s.u.RemovePost(ctx, nil, userID, postID); err != nil {
		slog.Error("failed to remove post index entry", "post_id", postID, "err", err)
	}
}

func (s *publishService) commitResult(ctx context.Context, userID, postID int64, result *provider.PostResult) (*models.Post, error) {
	status, publishedAt := mapBundleStatus(result.Status, s.now)

	if err := s.pr.UpdateSubmitted(ctx, postID, result.ID, status, publishedAt); err != nil {
		return nil, fmt.Errorf("error updating post after submission: %w", err)
	}

	if err := s.applyTargetResults(ctx, postID, result); err != nil {
		return nil, err
	}

	if err := s.u.AppendPost(ctx, nil, userID, postID); err != nil {
		return nil, fmt.Errorf("error updating user post index: %w", err)
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Targets, err = s.pt.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *publishService) applyTargetResults(ctx context.Context, postID int64, result *provider.PostResult) error {
	if len(result.Platforms) == 0 {
		status, _ := mapBundleStatus(result.Status, s.now)
		return s.pt.UpdateStatusAll(ctx, postID, status)
	}

	for name, pr := range result.Platforms {
		platform := strings.ToLower(name)
		status := mapTargetStatus(pr.Status)
		if err := s.pt.UpdateResult(ctx, postID, platform, status, pr.ContentID, pr.Permalink, pr.Error); err != nil {
			return err
		}
	}
	return nil
}

// mapBundleStatus translates the provider's post lifecycle into the
// local one. PublishedAt is set only when the provider confirms delivery.
func mapBundleStatus(providerStatus string, now func() time.Time) (string, *time.Time) {
	switch providerStatus {
	case provider.StatusPosted:
		publishedAt := now()
		return models.PostStatusPublished, &publishedAt
	case provider.StatusScheduled:
		return models.PostStatusScheduled, nil
	case provider.StatusError:
		return models.PostStatusFailed, nil
	default:
		return models.PostStatusPending, nil
	}
}

func mapTargetStatus(providerStatus string) string {
	switch providerStatus {
	case provider.StatusPosted:
		return models.TargetStatusPublished
	case provider.StatusScheduled:
		return models.TargetStatusScheduled
	case provider.StatusError:
		return models.TargetStatusFailed
	default:
		return models.TargetStatusPending
	}
}

func submitResult(post *models.Post) *transfer.SubmitResult {
	result := &transfer.SubmitResult{
		PostID:         post.ID,
		ProviderPostID: post.ProviderPostID,
		Status:         post.Status,
		ScheduledFor:   post.ScheduledFor,
	}
	for _, t := range post.Targets {
		result.Platforms = append(result.Platforms, transfer.TargetResult{
			Platform:  t.Platform,
			Status:    t.Status,
			ContentID: t.ContentID,
			Permalink: t.Permalink,
			Error:     t.ErrorMessage,
		})
	}
	return result
}

// Update edits caption, hashtags or schedule of a not-yet-published
// post, pushing the rebuilt payloads to the provider first.
func (s *publishService) Update(ctx context.Context, userID, postID int64, req *transfer.SubmitRequest) error {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return err
	}
	if post.Status == models.PostStatusPublished {
		return apperr.Validation("published posts cannot be edited")
	}
	if req == nil || req.Caption == "" {
		return apperr.Validation("caption cannot be empty")
	}

	var scheduledFor *time.Time
	if req.ScheduledFor != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			return apperr.Validation("invalid scheduled_for: %v", err)
		}
		if !parsed.After(s.now()) {
			return apperr.Validation("scheduled_for must be in the future")
		}
		scheduledFor = &parsed
	}

	targets, err := s.pt.ListByPostID(ctx, postID)
	if err != nil {
		return err
	}

	platformNames := make([]string, len(targets))
	for i, t := range targets {
		platformNames[i] = t.Platform
	}

	bundle, err := s.validator.Validate(ctx, userID, post.VideoID, platformNames)
	if err != nil {
		return err
	}

	update := *req
	update.Platforms = platformNames
	payloads := buildPayloads(bundle.Video, &update)

	if err := s.gateway.UpdatePost(ctx, post.ProviderPostID, payloads, scheduledFor); err != nil {
		return err
	}

	return s.pr.UpdateContent(ctx, postID, req.Caption, req.Hashtags, scheduledFor)
}

func (s *publishService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	post.Targets, err = s.pt.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *publishService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

// Remove deletes a non-published post on the provider side first, then
// locally. Published posts are immutable.
func (s *publishService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return err
	}
	if post.Status == models.PostStatusPublished {
		return apperr.Validation("published posts cannot be removed")
	}

	if post.ProviderPostID != "" {
		if err := s.gateway.DeletePost(ctx, post.ProviderPostID); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.pr.Remove(ctx, tx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	if err := s.u.RemovePost(ctx, tx, userID, postID); err != nil {
		return fmt.Errorf("error removing post index entry: %w", err)
	}

	return tx.Commit()
}

func (s *publishService) ownedPost(ctx context.Context, userID, postID int64) (*models.Post, error) {
	if userID == 0 {
		return nil, apperr.Validation("user is not valid")
	}
	if postID == 0 {
		return nil, apperr.Validation("post id is not valid")
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		return nil, apperr.NotFound("post %d not found", postID)
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound("post %d not found", postID)
	}
	return post, nil
}
