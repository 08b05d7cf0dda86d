package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/Cascapera/social-automation/internal/service"
)

type AssetHandler struct {
	s service.AssetService
}

func NewAssetHandler(s service.AssetService) *AssetHandler {
	return &AssetHandler{s: s}
}

func (h *AssetHandler) Upload(c *fiber.Ctx) error {
	file, err := readUpload(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	id, err := h.s.Upload(c.Context(), BrandID(c), c.FormValue("asset_type"), c.FormValue("label"), file)
	if err != nil {
		return fail(c, err)
	}
	return created(c, id)
}

func (h *AssetHandler) List(c *fiber.Ctx) error {
	assets, err := h.s.List(c.Context(), BrandID(c), c.Query("asset_type"))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(assets)
}

func (h *AssetHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid asset id",
		})
	}

	if err := h.s.Delete(c.Context(), BrandID(c), int64(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// readUpload pulls a single multipart file into memory.
func readUpload(c *fiber.Ctx, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
