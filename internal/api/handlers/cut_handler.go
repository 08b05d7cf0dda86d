package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Cascapera/social-automation/internal/service"
	"github.com/Cascapera/social-automation/internal/transfer"
)

// CutHandler serves both sources and the cuts derived from them.
type CutHandler struct {
	s service.CutService
}

func NewCutHandler(s service.CutService) *CutHandler {
	return &CutHandler{s: s}
}

func (h *CutHandler) CreateSource(c *fiber.Ctx) error {
	file, err := readUpload(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	id, err := h.s.CreateSource(c.Context(), BrandID(c), c.FormValue("title"), file)
	if err != nil {
		return fail(c, err)
	}
	return created(c, id)
}

func (h *CutHandler) ListSources(c *fiber.Ctx) error {
	sources, err := h.s.ListSources(c.Context(), BrandID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(sources)
}

func (h *CutHandler) DeleteSource(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid source id",
		})
	}

	if err := h.s.DeleteSource(c.Context(), BrandID(c), int64(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *CutHandler) ExtractCuts(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid source id",
		})
	}

	var extraction transfer.CutExtraction
	if err := c.BodyParser(&extraction); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	ids, err := h.s.ExtractCuts(c.Context(), BrandID(c), int64(id), &extraction)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ids": ids})
}

func (h *CutHandler) Upload(c *fiber.Ctx) error {
	file, err := readUpload(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	id, err := h.s.UploadCut(c.Context(), BrandID(c), c.FormValue("name"), c.FormValue("format"), file)
	if err != nil {
		return fail(c, err)
	}
	return created(c, id)
}

func (h *CutHandler) List(c *fiber.Ctx) error {
	cuts, err := h.s.List(c.Context(), BrandID(c), int64(c.QueryInt("source", 0)))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(cuts)
}

func (h *CutHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid cut id",
		})
	}

	if err := h.s.Delete(c.Context(), BrandID(c), int64(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
