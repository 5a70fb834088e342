package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avkravtsov/crosspost/internal/service"
)

type StoryHandler struct {
	s  service.StoryService
	ps service.PublishService
}

func NewStoryHandler(s service.StoryService, ps service.PublishService) *StoryHandler {
	return &StoryHandler{s: s, ps: ps}
}

func (h *StoryHandler) CreateStory(c *fiber.Ctx) error {
	story, err := h.s.Create(c.Context(), c.Params("post_id"), c.Params("platform"))
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}

func (h *StoryHandler) GetStory(c *fiber.Ctx) error {
	story, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(story)
}

func (h *StoryHandler) GetStoryLogs(c *fiber.Ctx) error {
	logs, err := h.s.Logs(c.Context(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"logs": logs})
}

func (h *StoryHandler) ListStories(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 100)

	stories, err := h.s.List(c.Context(), skip, limit)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"stories": stories})
}

func (h *StoryHandler) PublishStory(c *fiber.Ctx) error {
	story, err := h.ps.PublishStory(c.Context(), c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(story)
}
