package controller

import (
	"bank-chatbot-be/internal/pkg/serverutils"
	"bank-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICacheController interface {
	RegisterRoutes(r fiber.Router)
	Info(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type cacheController struct {
	cacheService service.ICacheService
}

func NewCacheController(cacheService service.ICacheService) ICacheController {
	return &cacheController{
		cacheService: cacheService,
	}
}

func (c *cacheController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/context-cache/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("info", c.Info)
	h.Get("list", c.List)
	h.Post("refresh", c.Refresh)
	h.Delete("", c.Delete)
}

func (c *cacheController) Info(ctx *fiber.Ctx) error {
	res, err := c.cacheService.Info()
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Context cache info", res))
}

func (c *cacheController) List(ctx *fiber.Ctx) error {
	res, err := c.cacheService.List(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Cached contents", res))
}

func (c *cacheController) Refresh(ctx *fiber.Ctx) error {
	res, err := c.cacheService.Refresh(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Context cache refreshed", res))
}

// Delete removes an upstream cached content by name. Names contain slashes
// ("cachedContents/..."), so the name travels as a query parameter.
func (c *cacheController) Delete(ctx *fiber.Ctx) error {
	name := ctx.Query("name")
	if name == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "name is required"))
	}

	if err := c.cacheService.Delete(ctx.Context(), name); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Cached content deleted", nil))
}
