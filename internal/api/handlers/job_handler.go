package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Cascapera/social-automation/internal/service"
	"github.com/Cascapera/social-automation/internal/transfer"
)

type JobHandler struct {
	js service.JobService
	ss service.SubtitleService
}

func NewJobHandler(js service.JobService, ss service.SubtitleService) *JobHandler {
	return &JobHandler{js: js, ss: ss}
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	var creation transfer.JobCreation
	if err := c.BodyParser(&creation); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	id, err := h.js.Create(c.Context(), BrandID(c), &creation)
	if err != nil {
		return fail(c, err)
	}
	return created(c, id)
}

// Upload creates a job directly from a finished video, bypassing
// assembly.
func (h *JobHandler) Upload(c *fiber.Ctx) error {
	file, err := readUpload(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	id, err := h.js.CreateFromUpload(c.Context(), BrandID(c), c.FormValue("name"), c.FormValue("format"), file)
	if err != nil {
		return fail(c, err)
	}
	return created(c, id)
}

func (h *JobHandler) List(c *fiber.Ctx) error {
	var archived *bool
	if c.Query("archived") != "" {
		v := c.QueryBool("archived")
		archived = &v
	}

	jobs, err := h.js.List(c.Context(), BrandID(c), archived)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(jobs)
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	job, err := h.js.GetByID(c.Context(), BrandID(c), int64(id))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(job)
}

func (h *JobHandler) Run(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	if err := h.js.Run(c.Context(), BrandID(c), int64(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *JobHandler) Archive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	var body struct {
		Archived *bool `json:"archived"`
	}
	if err := c.BodyParser(&body); err != nil || body.Archived == nil {
		archived := true
		body.Archived = &archived
	}

	if err := h.js.Archive(c.Context(), BrandID(c), int64(id), *body.Archived); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *JobHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	if err := h.js.Delete(c.Context(), BrandID(c), int64(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// Download redirects to the output artifact with a download filename.
func (h *JobHandler) Download(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	job, err := h.js.GetByID(c.Context(), BrandID(c), int64(id))
	if err != nil {
		return fail(c, err)
	}
	if job.OutputURL == "" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "job has no output",
		})
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", h.js.DownloadName(job)))
	return c.Redirect(job.OutputURL, fiber.StatusTemporaryRedirect)
}

func (h *JobHandler) GenerateSubtitles(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	if err := h.ss.Generate(c.Context(), BrandID(c), int64(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *JobHandler) UpdateSubtitles(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	var update transfer.SubtitleUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	job, err := h.ss.Update(c.Context(), BrandID(c), int64(id), &update)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(job)
}

func (h *JobHandler) BurnSubtitles(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job id",
		})
	}

	if err := h.ss.Burn(c.Context(), BrandID(c), int64(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}
