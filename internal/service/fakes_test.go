package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/provider"
)

// Shared in-memory fakes for the service tests. Each fake records just
// enough to assert on call order and persisted state.

type fakePostRepo struct {
	posts   map[int64]*models.Post
	nextID  int64
	creates int
	removes []int64
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post)}
}

func (r *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	r.nextID++
	r.creates++
	p := *post
	p.ID = r.nextID
	r.posts[p.ID] = &p
	return p.ID, nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) ListByStatus(ctx context.Context, statuses []string) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range r.posts {
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (r *fakePostRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	posts, _ := r.GetByUserID(ctx, userID)
	return len(posts), nil
}

func (r *fakePostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	p, ok := r.posts[postID]
	return ok && p.UserID == userID, nil
}

func (r *fakePostRepo) UpdateSubmitted(ctx context.Context, postID int64, providerPostID, status string, publishedAt *time.Time) error {
	p, ok := r.posts[postID]
	if !ok {
		return errors.New("post not found")
	}
	p.ProviderPostID = providerPostID
	p.Status = status
	p.PublishedAt = publishedAt
	return nil
}

func (r *fakePostRepo) UpdateContent(ctx context.Context, postID int64, caption string, hashtags []string, scheduledFor *time.Time) error {
	p, ok := r.posts[postID]
	if !ok {
		return errors.New("post not found")
	}
	p.Caption = caption
	p.Hashtags = hashtags
	if scheduledFor != nil {
		p.ScheduledFor = scheduledFor
	}
	return nil
}

func (r *fakePostRepo) UpdateStatus(ctx context.Context, status string, postID int64) error {
	if p, ok := r.posts[postID]; ok {
		p.Status = status
	}
	return nil
}

func (r *fakePostRepo) SetAnalytics(ctx context.Context, postID int64, analytics []byte) error {
	if p, ok := r.posts[postID]; ok {
		p.Analytics = analytics
	}
	return nil
}

func (r *fakePostRepo) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	delete(r.posts, id)
	r.removes = append(r.removes, id)
	return nil
}

type fakeTargetRepo struct {
	targets []*models.PostTarget
}

func (r *fakeTargetRepo) Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) error {
	t := *target
	r.targets = append(r.targets, &t)
	return nil
}

func (r *fakeTargetRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	var out []*models.PostTarget
	for _, t := range r.targets {
		if t.PostID == postID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTargetRepo) UpdateResult(ctx context.Context, postID int64, platform, status, contentID, permalink, errorMessage string) error {
	for _, t := range r.targets {
		if t.PostID == postID && t.Platform == platform {
			t.Status = status
			t.ContentID = contentID
			t.Permalink = permalink
			t.ErrorMessage = errorMessage
		}
	}
	return nil
}

func (r *fakeTargetRepo) UpdateStatusAll(ctx context.Context, postID int64, status string) error {
	for _, t := range r.targets {
		if t.PostID == postID {
			t.Status = status
		}
	}
	return nil
}

type fakeUserRepo struct {
	postIDs []int64
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	return nil, false, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	return nil, false, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	return 1, nil
}

func (r *fakeUserRepo) SetProviderTeamID(ctx context.Context, userID int64, teamID string) error {
	return nil
}

func (r *fakeUserRepo) AppendPost(ctx context.Context, tx *sql.Tx, userID, postID int64) error {
	r.postIDs = append(r.postIDs, postID)
	return nil
}

func (r *fakeUserRepo) RemovePost(ctx context.Context, tx *sql.Tx, userID, postID int64) error {
	for i, id := range r.postIDs {
		if id == postID {
			r.postIDs = append(r.postIDs[:i], r.postIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeUserRepo) ListPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.postIDs, nil
}

func (r *fakeUserRepo) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	return nil
}

type fakeVideoRepo struct {
	video *models.Video
}

func (r *fakeVideoRepo) Create(ctx context.Context, video *models.Video) (int64, error) {
	return 1, nil
}

func (r *fakeVideoRepo) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	if r.video != nil && r.video.ID == id {
		cp := *r.video
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeVideoRepo) GetOwned(ctx context.Context, id, userID int64) (*models.Video, error) {
	if r.video != nil && r.video.ID == id && r.video.UserID == userID {
		cp := *r.video
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeVideoRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Video, error) {
	if r.video != nil && r.video.UserID == userID {
		return []*models.Video{r.video}, nil
	}
	return nil, nil
}

func (r *fakeVideoRepo) SetUploadResult(ctx context.Context, id int64, uploadID string, durationSeconds int, thumbnailURL, status string) error {
	if r.video != nil && r.video.ID == id {
		r.video.ProviderUploadID = uploadID
		r.video.DurationSeconds = durationSeconds
		r.video.ThumbnailURL = thumbnailURL
		r.video.UploadStatus = status
	}
	return nil
}

func (r *fakeVideoRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if r.video != nil && r.video.ID == id {
		r.video.UploadStatus = status
	}
	return nil
}

func (r *fakeVideoRepo) Remove(ctx context.Context, id int64) error {
	if r.video != nil && r.video.ID == id {
		r.video = nil
	}
	return nil
}

type fakeAccountRepo struct {
	accounts []*models.SocialAccount
}

func (r *fakeAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	a := *sa
	a.ID = int64(len(r.accounts) + 1)
	r.accounts = append(r.accounts, &a)
	return a.ID, nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	for _, a := range r.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) FindConnected(ctx context.Context, userID int64, platforms []string) ([]*models.SocialAccount, error) {
	wanted := make(map[string]bool, len(platforms))
	for _, p := range platforms {
		wanted[strings.ToLower(p)] = true
	}
	var out []*models.SocialAccount
	for _, a := range r.accounts {
		if a.UserID == userID && a.IsConnected && wanted[a.Platform] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	for _, a := range r.accounts {
		if a.ID == accountID && a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccountRepo) SetConnected(ctx context.Context, id int64, connected bool) error {
	for _, a := range r.accounts {
		if a.ID == id {
			a.IsConnected = connected
		}
	}
	return nil
}

func (r *fakeAccountRepo) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	for i, a := range r.accounts {
		if a.ID == id {
			r.accounts = append(r.accounts[:i], r.accounts[i+1:]...)
			break
		}
	}
	return nil
}

// fakeGateway stubs the provider. Each hook defaults to a benign result
// so tests only wire the calls they care about.
type fakeGateway struct {
	submitImmediate func(platforms map[string]any) (*provider.PostResult, error)
	submitScheduled func(platforms map[string]any, scheduledFor time.Time) (*provider.PostResult, error)
	updatePost      func(postID string, platforms map[string]any, scheduledAt *time.Time) error
	deletePost      func(postID string) error
	fetchPost       func(postID string) (*provider.PostResult, error)
	fetchAccount    func(accountID string) (*provider.AccountResult, error)
	fetchUpload     func(uploadID string) (*provider.UploadResult, error)

	immediateCalls int
	scheduledCalls int
	deletedPosts   []string
}

func (g *fakeGateway) UploadMedia(ctx context.Context, fileName, contentType string, data []byte) (*provider.UploadResult, error) {
	return &provider.UploadResult{UploadID: "up_1", Status: provider.UploadStatusProcessing}, nil
}

func (g *fakeGateway) SubmitImmediatePost(ctx context.Context, platforms map[string]any) (*provider.PostResult, error) {
	g.immediateCalls++
	if g.submitImmediate != nil {
		return g.submitImmediate(platforms)
	}
	return &provider.PostResult{ID: "pp_1", Status: provider.StatusPosted}, nil
}

func (g *fakeGateway) SubmitScheduledPost(ctx context.Context, platforms map[string]any, scheduledFor time.Time) (*provider.PostResult, error) {
	g.scheduledCalls++
	if g.submitScheduled != nil {
		return g.submitScheduled(platforms, scheduledFor)
	}
	return &provider.PostResult{ID: "pp_1", Status: provider.StatusScheduled}, nil
}

func (g *fakeGateway) UpdatePost(ctx context.Context, postID string, platforms map[string]any, scheduledAt *time.Time) error {
	if g.updatePost != nil {
		return g.updatePost(postID, platforms, scheduledAt)
	}
	return nil
}

func (g *fakeGateway) DeletePost(ctx context.Context, postID string) error {
	g.deletedPosts = append(g.deletedPosts, postID)
	if g.deletePost != nil {
		return g.deletePost(postID)
	}
	return nil
}

func (g *fakeGateway) FetchPost(ctx context.Context, postID string) (*provider.PostResult, error) {
	if g.fetchPost != nil {
		return g.fetchPost(postID)
	}
	return &provider.PostResult{ID: postID, Status: provider.StatusScheduled}, nil
}

func (g *fakeGateway) FetchPostAnalytics(ctx context.Context, postID string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (g *fakeGateway) FetchAccountAnalytics(ctx context.Context, accountID string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (g *fakeGateway) FetchAccount(ctx context.Context, accountID string) (*provider.AccountResult, error) {
	if g.fetchAccount != nil {
		return g.fetchAccount(accountID)
	}
	return &provider.AccountResult{ID: accountID, Status: provider.AccountStatusConnected}, nil
}

func (g *fakeGateway) FetchUpload(ctx context.Context, uploadID string) (*provider.UploadResult, error) {
	if g.fetchUpload != nil {
		return g.fetchUpload(uploadID)
	}
	return &provider.UploadResult{UploadID: uploadID, Status: provider.UploadStatusCompleted}, nil
}

func (g *fakeGateway) DisconnectAccount(ctx context.Context, accountID string) error {
	return nil
}

func (g *fakeGateway) DeleteTeamAndAllData(ctx context.Context, teamID string) error {
	return nil
}
