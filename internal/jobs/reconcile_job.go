package job

import (
	"context"
	"log/slog"
	"sync"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
)

// ReconcileJob periodically sweeps posts whose provider-side outcome may
// still move (pending or scheduled) and refreshes each one. The provider
// fires scheduled posts itself; this sweep only converges local state.
type ReconcileJob struct {
	pr repository.PostRepository
	rc service.ReconcileService
}

func NewReconcileJob(pr repository.PostRepository, rc service.ReconcileService) *ReconcileJob {
	return &ReconcileJob{
		pr: pr,
		rc: rc,
	}
}

func (j *ReconcileJob) Run() {
	ctx := context.Background()

	posts, err := j.pr.ListByStatus(ctx, []string{models.PostStatusPending, models.PostStatusScheduled})
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, post := range posts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(post *models.Post) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := j.rc.RefreshPost(ctx, post.ID); err != nil {
				slog.Info("unable to refresh post status", "post_id", post.ID, "err", err.Error())
			}
		}(post)
	}

	wg.Wait()
}
