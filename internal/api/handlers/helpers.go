package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/avkravtsov/crosspost/internal/service"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrEmptyText), errors.Is(err, service.ErrInvalidPlatform):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func sendError(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
