package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/postpilothq/postpilot/internal/queue"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/postpilothq/postpilot/internal/transfer"
)

// reconcileGrace is how long after the publication time the follow-up
// status refresh runs. The provider needs a moment to fan the post out
// before its status settles.
const reconcileGrace = 2 * time.Minute

type PostHandler struct {
	s           service.PublishService
	rc          service.ReconcileService
	asynqClient *asynq.Client
}

func NewPostHandler(service service.PublishService, rc service.ReconcileService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, rc: rc, asynqClient: asynqClient}
}

func (h *PostHandler) SubmitPost(c *fiber.Ctx) error {
	userId := GetUserID(c)

	var req transfer.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.s.SubmitImmediate(c.Context(), userId, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	userId := GetUserID(c)

	var req transfer.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.s.SubmitScheduled(c.Context(), userId, &req)
	if err != nil {
		return respondError(c, err)
	}

	if result.ScheduledFor != nil {
		delay := time.Until(*result.ScheduledFor) + reconcileGrace
		payload := queue.ReconcilePostPayload{PostID: result.PostID}
		if err := queue.EnqueueReconcile(h.asynqClient, payload, delay); err != nil {
			slog.Error("failed to enqueue reconcile task", "post_id", result.PostID, "err", err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userId := GetUserID(c)

	posts, err := h.s.List(c.Context(), userId)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

// GetPost refreshes the post from the provider before answering, so
// scheduled posts that have since gone out read as published.
func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userId := GetUserID(c)

	postId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid post id",
		})
	}

	post, err := h.s.PostInfo(c.Context(), int64(postId), userId)
	if err != nil {
		return respondError(c, err)
	}

	refreshed, err := h.rc.RefreshPost(c.Context(), post.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(refreshed)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userId := GetUserID(c)

	postId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid post id",
		})
	}

	var req transfer.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.s.Update(c.Context(), userId, int64(postId), &req); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	userId := GetUserID(c)

	postId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid post id",
		})
	}

	if err := h.s.Remove(c.Context(), userId, int64(postId)); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
