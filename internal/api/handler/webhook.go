package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/telegram"
)

// Conversation handles one inbound bot message
type Conversation interface {
	HandleMessage(ctx context.Context, msg *telegram.Message) error
}

// WebhookHandler receives bot updates. Each call is handled once, in line,
// and never retried here.
type WebhookHandler struct {
	conversation Conversation
	logger       *slog.Logger
}

func NewWebhookHandler(conversation Conversation, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		conversation: conversation,
		logger:       logger,
	}
}

// Handle processes a Telegram update. Updates without a message are accepted
// and ignored.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	var update telegram.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return domain.ErrInvalidJSON.WithError(err)
	}

	if update.Message == nil {
		h.logger.Debug("ignoring update without message", "update_id", update.UpdateID)
		return c.SendString("OK")
	}

	if err := h.conversation.HandleMessage(c.Context(), update.Message); err != nil {
		return domain.ErrInternal.WithError(err)
	}

	return c.SendString("OK")
}
