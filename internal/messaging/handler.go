package messaging

import (
	"errors"
	"strings"
	"time"

	"farmlink-backend/internal/auth"
	"farmlink-backend/internal/database"
	"farmlink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type SendMessageRequest struct {
	ReceiverID string  `json:"receiver_id"`
	Content    string  `json:"content"`
	ContractID *string `json:"contract_id"` // optional context tag
}

type MessageResponse struct {
	ID         string  `json:"id"`
	SenderID   string  `json:"sender_id"`
	ReceiverID string  `json:"receiver_id"`
	ContractID *string `json:"contract_id"`
	Content    string  `json:"content"`
	Read       bool    `json:"read"`
	CreatedAt  string  `json:"created_at"`
}

type ConversationResponse struct {
	Conversation
	CounterpartyName     string `json:"counterparty_name"`
	CounterpartyBusiness string `json:"counterparty_business"`
	CounterpartyImageURL string `json:"counterparty_image_url"`
}

func toMessageResponse(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		ContractID: m.ContractID,
		Content:    m.Content,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}

func viewerFromCtx(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals(auth.CtxUserIDKey).(string)
	if !ok || userID == "" {
		return "", fiber.NewError(fiber.StatusForbidden, "Could not determine user")
	}
	return userID, nil
}

// -------------------------
// Handlers
// -------------------------

// POST /api/messages
func SendMessageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		senderID, err := viewerFromCtx(c)
		if err != nil {
			return err
		}

		var body SendMessageRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Content = strings.TrimSpace(body.Content)
		if body.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Message content cannot be empty")
		}
		if body.ReceiverID == "" || body.ReceiverID == senderID {
			return fiber.NewError(fiber.StatusBadRequest, "receiver_id must reference another user")
		}

		var receiver models.Profile
		if err := database.DB.First(&receiver, "id = ?", body.ReceiverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Receiver not found")
			}
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		if body.ContractID != nil && *body.ContractID != "" {
			var count int64
			database.DB.Model(&models.Contract{}).Where("id = ?", *body.ContractID).Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusNotFound, "Contract not found")
			}
		} else {
			body.ContractID = nil
		}

		msg := models.Message{
			SenderID:   senderID,
			ReceiverID: body.ReceiverID,
			ContractID: body.ContractID,
			Content:    body.Content,
		}
		if err := database.DB.Create(&msg).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		return c.Status(fiber.StatusCreated).JSON(toMessageResponse(&msg))
	}
}

// GET /api/conversations
func ListConversationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewerID, err := viewerFromCtx(c)
		if err != nil {
			return err
		}

		var msgs []models.Message
		if err := database.DB.
			Where("sender_id = ? OR receiver_id = ?", viewerID, viewerID).
			Order("created_at DESC").
			Find(&msgs).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		conversations := BuildConversations(viewerID, msgs)

		// Attach counterparty profile info in one query
		ids := make([]string, 0, len(conversations))
		for _, conv := range conversations {
			ids = append(ids, conv.CounterpartyID)
		}
		profilesByID := map[string]models.Profile{}
		if len(ids) > 0 {
			var profiles []models.Profile
			if err := database.DB.Where("id IN ?", ids).Find(&profiles).Error; err != nil {
				return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
			}
			for _, p := range profiles {
				profilesByID[p.ID] = p
			}
		}

		out := make([]ConversationResponse, 0, len(conversations))
		for _, conv := range conversations {
			p := profilesByID[conv.CounterpartyID]
			out = append(out, ConversationResponse{
				Conversation:         conv,
				CounterpartyName:     p.FullName,
				CounterpartyBusiness: p.BusinessName,
				CounterpartyImageURL: p.ProfileImageURL,
			})
		}
		return c.JSON(out)
	}
}

// GET /api/messages/:otherID - chronological thread with one counterparty
func GetThreadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewerID, err := viewerFromCtx(c)
		if err != nil {
			return err
		}
		otherID := c.Params("otherID")

		var msgs []models.Message
		if err := database.DB.
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				viewerID, otherID, otherID, viewerID).
			Order("created_at ASC").
			Find(&msgs).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		out := make([]MessageResponse, 0, len(msgs))
		for i := range msgs {
			out = append(out, toMessageResponse(&msgs[i]))
		}
		return c.JSON(out)
	}
}

// PATCH /api/messages/:id/read (receiver only)
func MarkMessageReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewerID, err := viewerFromCtx(c)
		if err != nil {
			return err
		}

		var msg models.Message
		if err := database.DB.First(&msg, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Message not found")
			}
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}
		if msg.ReceiverID != viewerID {
			return fiber.NewError(fiber.StatusForbidden, "Only the receiver can mark a message as read")
		}

		if !msg.Read {
			if err := database.DB.Model(&msg).Update("read", true).Error; err != nil {
				return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
			}
			msg.Read = true
		}

		return c.JSON(toMessageResponse(&msg))
	}
}
