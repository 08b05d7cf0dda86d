package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	config "github.com/Cascapera/social-automation/configs"
	"github.com/Cascapera/social-automation/internal/publisher"
	"github.com/Cascapera/social-automation/internal/service"
	"github.com/Cascapera/social-automation/pkg/utils"
)

type PlatformHandler struct {
	ps  service.PlatformService
	ig  *publisher.Instagram
	tt  *publisher.Tiktok
	yt  *publisher.YouTube
	cfg *config.Config
}

func NewPlatformHandler(ps service.PlatformService, ig *publisher.Instagram, tt *publisher.Tiktok, yt *publisher.YouTube, cfg *config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		ig:  ig,
		tt:  tt,
		yt:  yt,
		cfg: cfg,
	}
}

// Connect redirects to the platform's consent page. The state token
// carries the brand the new account will belong to.
func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	brandID := BrandID(c)
	if brandID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "brand is required",
		})
	}

	state, err := utils.GenerateToken(h.cfg.SecretKey, "oauth-state", brandID, 15*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	authURL := h.ps.GetAuthURL(c.Context(), c.Params("platform"), state)
	if authURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown platform",
		})
	}
	return c.Redirect(authURL)
}

func (h *PlatformHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	platform := c.Params("platform")

	claims, err := utils.ValidateToken(h.cfg.SecretKey, state)
	if err != nil || claims.BrandID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid state",
		})
	}

	switch platform {
	case "instagram":
		err = h.ig.Callback(c.Context(), code, claims.BrandID)
	case "tiktok":
		err = h.tt.Callback(c.Context(), code, claims.BrandID)
	case "youtube":
		err = h.yt.Callback(c.Context(), code, claims.BrandID)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown platform",
		})
	}
	if err != nil {
		slog.Info("oauth callback failed", "platform", platform, "err", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	redirectURL := fmt.Sprintf("%s/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.ps.List(c.Context(), BrandID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *PlatformHandler) DeleteAccount(c *fiber.Ctx) error {
	accountID := c.QueryInt("id", 0)

	if err := h.ps.Delete(c.Context(), BrandID(c), int64(accountID)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
