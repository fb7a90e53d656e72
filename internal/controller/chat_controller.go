package controller

import (
	"errors"
	"strings"

	"bank-chatbot-be/internal/dto"
	"bank-chatbot-be/internal/pkg/serverutils"
	"bank-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Converse(ctx *fiber.Ctx) error
	GetActiveSessions(ctx *fiber.Ctx) error
	EndSession(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("converse", c.Converse)
	h.Get("sessions", serverutils.JwtMiddleware, c.GetActiveSessions)
	h.Delete("sessions/:user_id", serverutils.JwtMiddleware, c.EndSession)
}

func (c *chatController) Converse(ctx *fiber.Ctx) error {
	var req dto.ConverseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Message) == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "message must not be empty"))
	}

	res, err := c.chatService.Converse(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCustomerBlocked) {
			return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(403, err.Error()))
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *chatController) GetActiveSessions(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Active sessions", c.chatService.ActiveSessions()))
}

func (c *chatController) EndSession(ctx *fiber.Ctx) error {
	userId := ctx.Params("user_id")
	if userId == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "user_id is required"))
	}

	c.chatService.EndSession(userId)
	return ctx.JSON(serverutils.SuccessResponse[any]("Session ended", nil))
}
