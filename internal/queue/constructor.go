package queue

import (
	"github.com/postpilothq/postpilot/internal/service"
)

type Queue struct {
	rc service.ReconcileService
}

func NewQueue(rc service.ReconcileService) *Queue {
	return &Queue{
		rc: rc,
	}
}

const TaskTypeReconcilePost = "reconcile:post"

type ReconcilePostPayload struct {
	PostID int64 `json:"post_id"`
}
