package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/avkravtsov/crosspost/internal/service"
	"github.com/avkravtsov/crosspost/internal/transfer"
)

type PostHandler struct {
	s  service.PostService
	ps service.PublishService
}

func NewPostHandler(s service.PostService, ps service.PublishService) *PostHandler {
	return &PostHandler{s: s, ps: ps}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.Create(c.Context(), &pc)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) GetPostLogs(c *fiber.Ctx) error {
	logs, err := h.s.Logs(c.Context(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"logs": logs})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 100)
	search := c.Query("search")

	posts, err := h.s.List(c.Context(), skip, limit, search)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"posts": posts})
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	var pu transfer.PostUpdate
	if err := c.BodyParser(&pu); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.Update(c.Context(), c.Params("id"), &pu)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), c.Params("id")); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	post, err := h.ps.PublishPost(c.Context(), c.Params("id"), c.Params("platform"))
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) PublishPostAll(c *fiber.Ctx) error {
	post, results, err := h.ps.PublishPostAll(c.Context(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"post":    post,
		"results": results,
	})
}
