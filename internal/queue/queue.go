package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueueReconcile schedules a status refresh for a post. Scheduled
// submissions get one queued for just after their publication time, so
// the local record converges shortly after the provider fires the post.
func EnqueueReconcile(asynqClient *asynq.Client, payload ReconcilePostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeReconcilePost, taskPayload)

	if _, err := asynqClient.Enqueue(task, asynq.ProcessIn(delay)); err != nil {
		return err
	}

	slog.Info("reconcile task scheduled", "post_id", payload.PostID, "delay", delay.String())
	return nil
}
