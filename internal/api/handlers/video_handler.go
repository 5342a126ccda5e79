package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/service"
)

type VideoHandler struct {
	s  service.VideoService
	rc service.ReconcileService
}

func NewVideoHandler(service service.VideoService, rc service.ReconcileService) *VideoHandler {
	return &VideoHandler{s: service, rc: rc}
}

func (h *VideoHandler) UploadVideo(c *fiber.Ctx) error {
	userId := GetUserID(c)
	title := c.FormValue("title")

	file, err := c.FormFile("video")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "video file is required",
		})
	}

	video, err := h.s.Upload(c.Context(), userId, title, file)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(video)
}

func (h *VideoHandler) ListVideos(c *fiber.Ctx) error {
	userId := GetUserID(c)

	videos, err := h.s.List(c.Context(), userId)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(videos)
}

// GetVideo re-polls the provider before answering so upload progress is
// current without a push channel from the provider.
func (h *VideoHandler) GetVideo(c *fiber.Ctx) error {
	userId := GetUserID(c)

	videoId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid video id",
		})
	}

	video, err := h.s.VideoInfo(c.Context(), int64(videoId), userId)
	if err != nil {
		return respondError(c, err)
	}

	refreshed, err := h.rc.RefreshUpload(c.Context(), video.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(refreshed)
}

func (h *VideoHandler) DeleteVideo(c *fiber.Ctx) error {
	userId := GetUserID(c)

	videoId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid video id",
		})
	}

	if err := h.s.Remove(c.Context(), userId, int64(videoId)); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
