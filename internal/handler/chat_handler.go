package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"stockroom/internal/auth"
	"stockroom/internal/chat"
	"stockroom/internal/model"
)

// ChatHandler exposes the command dialogue over HTTP.
type ChatHandler struct {
	bot      *chat.Bot
	sessions *chat.SessionStore
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(bot *chat.Bot, sessions *chat.SessionStore) *ChatHandler {
	return &ChatHandler{bot: bot, sessions: sessions}
}

// ChatRequest is one message. An empty session_id starts a conversation.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message" validate:"required,max=500"`
}

// ChatResponse carries the reply and the session to send back next time.
type ChatResponse struct {
	SessionID string    `json:"session_id"`
	Reply     string    `json:"reply"`
	Step      chat.Step `json:"step"`
}

// Message godoc
// @Summary Send a chat command
// @Description Commands: ajuda, adicionar produto, estoque, vender [id], cancelar.
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChatRequest true "Message"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Message(c echo.Context) error {
	var req ChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = chat.NewSessionID()
	}

	readOnly := true
	var owner uint
	if claims := auth.ClaimsFrom(c); claims != nil {
		readOnly = claims.Role.Rank() < model.RoleStaff.Rank()
		owner = claims.UserID
	}

	session := h.sessions.Load(ctx, owner, sessionID)
	next, reply := h.bot.Handle(ctx, session, chat.Message{Text: req.Message, ReadOnly: readOnly})
	if err := h.sessions.Save(ctx, owner, sessionID, next); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("chat: save session")
	}

	return c.JSON(http.StatusOK, ChatResponse{
		SessionID: sessionID,
		Reply:     reply,
		Step:      next.Step,
	})
}
