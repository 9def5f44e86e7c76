package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/VeeCC-T/ShieldHer/internal/chatbot"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/gofiber/fiber/v2"
)

// ChatbotHandler serves the support chatbot. Messages are answered and
// discarded; nothing the user types is stored or logged.
type ChatbotHandler struct {
	bot       *chatbot.Bot
	maxLength int
}

// NewChatbotHandler creates a new instance of ChatbotHandler.
func NewChatbotHandler(bot *chatbot.Bot, cfg *security.SecurityConfig) *ChatbotHandler {
	return &ChatbotHandler{bot: bot, maxLength: cfg.MaxChatMessageLength}
}

// ChatRequest is the body of POST /api/chatbot/message/.
// ConversationHistory is accepted for client compatibility and ignored.
type ChatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []interface{} `json:"conversation_history"`
}

// Message answers one chat message.
//
// Responses:
//   - 200: {response, category, follow_up?, timestamp}
//   - 400: {error: "Message is required"}
func (h *ChatbotHandler) Message(c *fiber.Ctx) error {
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	}
	if h.maxLength > 0 && utf8.RuneCountInString(req.Message) > h.maxLength {
		return security.FieldErrors{"message": {"Message is too long"}}
	}

	return c.JSON(h.bot.Respond(req.Message))
}

// Suggestions handles GET /api/chatbot/suggestions/.
func (h *ChatbotHandler) Suggestions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"suggestions": h.bot.Suggestions()})
}

// Resources handles GET /api/chatbot/resources/.
func (h *ChatbotHandler) Resources(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"resources": h.bot.QuickResources()})
}
