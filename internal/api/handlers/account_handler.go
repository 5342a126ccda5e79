package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/service"
)

type AccountHandler struct {
	s  service.AccountService
	rc service.ReconcileService
}

func NewAccountHandler(service service.AccountService, rc service.ReconcileService) *AccountHandler {
	return &AccountHandler{s: service, rc: rc}
}

func (h *AccountHandler) LinkAccount(c *fiber.Ctx) error {
	userId := GetUserID(c)

	var req struct {
		AccountID string `json:"account_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	account, err := h.s.Link(c.Context(), userId, req.AccountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(account)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userId := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userId)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

// GetAccount re-checks the connection with the provider so a revoked
// platform token shows up without waiting for the next sweep.
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	userId := GetUserID(c)

	accountId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid account id",
		})
	}

	account, err := h.s.AccountInfo(c.Context(), userId, int64(accountId))
	if err != nil {
		return respondError(c, err)
	}

	refreshed, err := h.rc.RefreshAccount(c.Context(), account.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(refreshed)
}

func (h *AccountHandler) AccountAnalytics(c *fiber.Ctx) error {
	userId := GetUserID(c)

	accountId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid account id",
		})
	}

	analytics, err := h.s.Analytics(c.Context(), userId, int64(accountId))
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "application/json")
	return c.Status(fiber.StatusOK).Send(analytics)
}

func (h *AccountHandler) RemoveAccount(c *fiber.Ctx) error {
	userId := GetUserID(c)

	accountId, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid account id",
		})
	}

	if err := h.s.Disconnect(c.Context(), userId, int64(accountId)); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
