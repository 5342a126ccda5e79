package service

import (
	"context"
	"testing"
	"time"

	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/apperr"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/provider"
)

type reconcileFixture struct {
	svc      ReconcileService
	posts    *fakePostRepo
	targets  *fakeTargetRepo
	videos   *fakeVideoRepo
	accounts *fakeAccountRepo
	gateway  *fakeGateway
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()

	posts := newFakePostRepo()
	targets := &fakeTargetRepo{}
	videos := &fakeVideoRepo{}
	accounts := &fakeAccountRepo{}
	gateway := &fakeGateway{}

	svc := NewReconcileService(posts, targets, videos, accounts, gateway, NewR2Service(config.Config{}))

	return &reconcileFixture{
		svc:      svc,
		posts:    posts,
		targets:  targets,
		videos:   videos,
		accounts: accounts,
		gateway:  gateway,
	}
}

func TestRefreshPostAppliesProviderOutcome(t *testing.T) {
	f := newReconcileFixture(t)
	f.posts.posts[5] = &models.Post{
		ID:             5,
		UserID:         testUserID,
		ProviderPostID: "pp_5",
		Status:         models.PostStatusScheduled,
	}
	f.targets.targets = []*models.PostTarget{
		{PostID: 5, Platform: "twitter", Status: models.TargetStatusScheduled},
	}
	f.gateway.fetchPost = func(postID string) (*provider.PostResult, error) {
		return &provider.PostResult{
			ID:     postID,
			Status: provider.StatusPosted,
			Platforms: map[string]provider.PlatformResult{
				"TWITTER": {Status: provider.StatusPosted, ContentID: "tw_1", Permalink: "https://x.com/1"},
			},
		}, nil
	}

	post, err := f.svc.RefreshPost(context.Background(), 5)
	if err != nil {
		t.Fatalf("RefreshPost: %v", err)
	}

	if post.Status != models.PostStatusPublished {
		t.Errorf("status = %q, want published", post.Status)
	}
	if post.PublishedAt == nil {
		t.Error("PublishedAt should be set once the provider reports POSTED")
	}
	if len(post.Targets) != 1 || post.Targets[0].Status != models.TargetStatusPublished {
		t.Errorf("targets = %+v", post.Targets)
	}
	if post.Targets[0].Permalink != "https://x.com/1" {
		t.Errorf("permalink = %q", post.Targets[0].Permalink)
	}
}

func TestRefreshPostSwallowsProviderErrors(t *testing.T) {
	f := newReconcileFixture(t)
	f.posts.posts[5] = &models.Post{
		ID:             5,
		UserID:         testUserID,
		ProviderPostID: "pp_5",
		Status:         models.PostStatusScheduled,
	}
	f.gateway.fetchPost = func(string) (*provider.PostResult, error) {
		return nil, apperr.Provider("provider unavailable")
	}

	post, err := f.svc.RefreshPost(context.Background(), 5)
	if err != nil {
		t.Fatalf("a failed poll must not surface: %v", err)
	}
	if post.Status != models.PostStatusScheduled {
		t.Errorf("status = %q, local state should be untouched", post.Status)
	}
}

func TestRefreshPostWithoutProviderIDIsNoop(t *testing.T) {
	f := newReconcileFixture(t)
	f.posts.posts[5] = &models.Post{ID: 5, UserID: testUserID, Status: models.PostStatusPending}

	post, err := f.svc.RefreshPost(context.Background(), 5)
	if err != nil {
		t.Fatalf("RefreshPost: %v", err)
	}
	if post.Status != models.PostStatusPending {
		t.Errorf("status = %q", post.Status)
	}
}

func TestRefreshPostUnknownPost(t *testing.T) {
	f := newReconcileFixture(t)

	_, err := f.svc.RefreshPost(context.Background(), 99)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestRefreshAccountSyncsConnection(t *testing.T) {
	f := newReconcileFixture(t)
	f.accounts.accounts = []*models.SocialAccount{
		{ID: 3, UserID: testUserID, Platform: "tiktok", ProviderAccountID: "acc_tt", IsConnected: true},
	}
	f.gateway.fetchAccount = func(accountID string) (*provider.AccountResult, error) {
		return &provider.AccountResult{ID: accountID, Status: provider.AccountStatusDisconnected}, nil
	}

	account, err := f.svc.RefreshAccount(context.Background(), 3)
	if err != nil {
		t.Fatalf("RefreshAccount: %v", err)
	}
	if account.IsConnected {
		t.Error("account should read disconnected after the provider revokes it")
	}
}

func TestRefreshAccountSwallowsProviderErrors(t *testing.T) {
	f := newReconcileFixture(t)
	f.accounts.accounts = []*models.SocialAccount{
		{ID: 3, UserID: testUserID, Platform: "tiktok", ProviderAccountID: "acc_tt", IsConnected: true},
	}
	f.gateway.fetchAccount = func(string) (*provider.AccountResult, error) {
		return nil, apperr.Provider("provider unavailable")
	}

	account, err := f.svc.RefreshAccount(context.Background(), 3)
	if err != nil {
		t.Fatalf("a failed poll must not surface: %v", err)
	}
	if !account.IsConnected {
		t.Error("local state should be untouched when the poll fails")
	}
}

func TestRefreshUploadCompletes(t *testing.T) {
	f := newReconcileFixture(t)
	f.videos.video = &models.Video{
		ID:               42,
		UserID:           testUserID,
		ProviderUploadID: "up_42",
		ThumbnailURL:     "https://cdn/thumb.jpg",
		UploadStatus:     models.UploadStatusUploading,
	}
	f.gateway.fetchUpload = func(uploadID string) (*provider.UploadResult, error) {
		return &provider.UploadResult{
			UploadID:        uploadID,
			Status:          provider.UploadStatusCompleted,
			DurationSeconds: 75,
			ThumbnailURL:    "https://cdn/thumb.jpg",
		}, nil
	}

	video, err := f.svc.RefreshUpload(context.Background(), 42)
	if err != nil {
		t.Fatalf("RefreshUpload: %v", err)
	}
	if video.UploadStatus != models.UploadStatusCompleted {
		t.Errorf("status = %q, want completed", video.UploadStatus)
	}
	if video.DurationSeconds != 75 {
		t.Errorf("duration = %d, want 75", video.DurationSeconds)
	}
}

func TestRefreshUploadSkipsCompleted(t *testing.T) {
	f := newReconcileFixture(t)
	f.videos.video = &models.Video{
		ID:               42,
		UserID:           testUserID,
		ProviderUploadID: "up_42",
		UploadStatus:     models.UploadStatusCompleted,
	}
	called := false
	f.gateway.fetchUpload = func(string) (*provider.UploadResult, error) {
		called = true
		return nil, nil
	}

	if _, err := f.svc.RefreshUpload(context.Background(), 42); err != nil {
		t.Fatalf("RefreshUpload: %v", err)
	}
	if called {
		t.Error("completed uploads should not be re-polled")
	}
}

func TestMapBundleStatus(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	status, publishedAt := mapBundleStatus(provider.StatusPosted, now)
	if status != models.PostStatusPublished || publishedAt == nil {
		t.Errorf("POSTED -> %q/%v", status, publishedAt)
	}

	status, publishedAt = mapBundleStatus(provider.StatusScheduled, now)
	if status != models.PostStatusScheduled || publishedAt != nil {
		t.Errorf("SCHEDULED -> %q/%v", status, publishedAt)
	}

	status, _ = mapBundleStatus(provider.StatusError, now)
	if status != models.PostStatusFailed {
		t.Errorf("ERROR -> %q", status)
	}

	status, _ = mapBundleStatus(provider.StatusProcessing, now)
	if status != models.PostStatusPending {
		t.Errorf("PROCESSING -> %q", status)
	}
}
