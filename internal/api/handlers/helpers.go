package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Cascapera/social-automation/internal/apperrors"
)

// BrandID reads the mandatory brand scope from the query string. Every
// catalog/job/schedule call is explicitly brand-scoped.
func BrandID(c *fiber.Ctx) int64 {
	return int64(c.QueryInt("brand", 0))
}

// fail maps the service error taxonomy onto HTTP statuses:
// validation 400, precondition/conflict 409, not found 404,
// dispatch 502, anything else 500.
func fail(c *fiber.Ctx, err error) error {
	var (
		validation *apperrors.ValidationError
		precond    *apperrors.PreconditionError
		conflict   *apperrors.ConflictError
		notFound   *apperrors.NotFoundError
		dispatch   *apperrors.TransientDispatchError
	)

	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &validation):
		status = fiber.StatusBadRequest
	case errors.As(err, &precond), errors.As(err, &conflict):
		status = fiber.StatusConflict
	case errors.As(err, &notFound):
		status = fiber.StatusNotFound
	case errors.As(err, &dispatch):
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func created(c *fiber.Ctx, id int64) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}
