package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Cascapera/social-automation/internal/service"
)

type BrandHandler struct {
	s service.BrandService
}

func NewBrandHandler(s service.BrandService) *BrandHandler {
	return &BrandHandler{s: s}
}

func (h *BrandHandler) Create(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	id, err := h.s.Create(c.Context(), body.Name)
	if err != nil {
		return fail(c, err)
	}
	return created(c, id)
}

func (h *BrandHandler) List(c *fiber.Ctx) error {
	brands, err := h.s.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(brands)
}
