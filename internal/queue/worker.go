package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandleReconcilePostTask(ctx context.Context, task *asynq.Task) error {
	var payload ReconcilePostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if _, err := q.rc.RefreshPost(ctx, payload.PostID); err != nil {
		// Reconciliation is best-effort; the cron sweep will pick the
		// post up again if it is still unresolved.
		slog.Info("reconcile task failed", "post_id", payload.PostID, "err", err.Error())
	}

	return nil
}
