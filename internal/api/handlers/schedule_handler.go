package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Cascapera/social-automation/internal/service"
	"github.com/Cascapera/social-automation/internal/transfer"
)

type ScheduleHandler struct {
	s service.ScheduleService
}

func NewScheduleHandler(s service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{s: s}
}

func (h *ScheduleHandler) Create(c *fiber.Ctx) error {
	var creation transfer.SchedulePostCreation
	if err := c.BodyParser(&creation); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	id, err := h.s.Create(c.Context(), BrandID(c), &creation)
	if err != nil {
		return fail(c, err)
	}
	return created(c, id)
}

func (h *ScheduleHandler) List(c *fiber.Ctx) error {
	posts, err := h.s.ListByBrand(c.Context(), BrandID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

// Calendar returns the 6x7 month grid; defaults to the current month.
func (h *ScheduleHandler) Calendar(c *fiber.Ctx) error {
	now := time.Now()
	year := c.QueryInt("year", now.Year())
	month := time.Month(c.QueryInt("month", int(now.Month())))

	grid, err := h.s.Calendar(c.Context(), BrandID(c), year, month)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(grid)
}
