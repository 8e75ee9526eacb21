package controller

import (
	"arthik-chat-be/internal/constant"
	"arthik-chat-be/internal/dto"
	"arthik-chat-be/internal/pkg/apperror"
	"arthik-chat-be/internal/pkg/logger"
	"arthik-chat-be/internal/pkg/serverutils"
	"arthik-chat-be/internal/service"
	internalWS "arthik-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	ListSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	QuickMessage(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	hub         *internalWS.Hub
	authMode    string
	jwtSecret   string
	logger      logger.ILogger
}

// NewChatController wires the chat routes. hub may be nil, in which case the
// live stream route is not registered.
func NewChatController(chatService service.IChatService, hub *internalWS.Hub, authMode string, jwtSecret string, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		hub:         hub,
		authMode:    authMode,
		jwtSecret:   jwtSecret,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	auth := serverutils.NewAuthMiddleware(c.authMode, c.jwtSecret)

	h := r.Group("/api/chat")
	h.Use(auth)
	h.Get("sessions", c.ListSessions)
	h.Post("sessions", c.CreateSession)
	h.Get("sessions/:sessionId/messages", c.ListMessages)
	h.Post("message", c.SendMessage)
	h.Post("quick-message", c.QuickMessage)
	h.Get("history", c.History)

	if c.hub != nil {
		ws := r.Group("/ws/chat")
		ws.Use(auth)
		ws.Get("sessions/:sessionId", c.Stream)
	}
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	res, err := c.chatService.ListSessions(ctx.UserContext(), serverutils.UserId(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.chatService.CreateSession(ctx.UserContext(), serverutils.UserId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) ListMessages(ctx *fiber.Ctx) error {
	res, err := c.chatService.ListMessages(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("sessionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.chatService.SendMessage(ctx.UserContext(), serverutils.UserId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) QuickMessage(ctx *fiber.Ctx) error {
	var req dto.QuickMessageRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.chatService.QuickMessage(ctx.UserContext(), serverutils.UserId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

// History is the per-user sidebar. With auth enabled an anonymous caller has
// no history of its own.
func (c *chatController) History(ctx *fiber.Ctx) error {
	owner := serverutils.UserId(ctx)
	if c.authMode != constant.AuthModeOff && owner == constant.OwnerScopeGlobal {
		return apperror.Unauthorized("Sign in to see your chat history")
	}

	res, err := c.chatService.GetHistory(ctx.UserContext(), owner)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

// Stream upgrades to a websocket that receives message events for one session.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	owner := serverutils.UserId(ctx)
	sessionId := ctx.Params("sessionId")

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("ChatController", "Starting chat stream", map[string]interface{}{"session_id": sessionId})
		internalWS.ServeWs(c.hub, conn, owner, sessionId)
		c.logger.Info("ChatController", "Chat stream ended", map[string]interface{}{"session_id": sessionId})
	})(ctx)
}
