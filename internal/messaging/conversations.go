package messaging

import (
	"time"

	"farmlink-backend/internal/models"
)

type ConversationMessage struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sent_at"`
	OwnMessage bool      `json:"own_message"`
	Read       bool      `json:"read"`
}

type Conversation struct {
	CounterpartyID string                `json:"counterparty_id"`
	Messages       []ConversationMessage `json:"messages"`
	Unread         int                   `json:"unread"`
	LastMessageAt  time.Time             `json:"last_message_at"`
}

// BuildConversations groups messages by counterparty. The input must be
// ordered by created_at descending (newest first); the result keeps groups
// in that order (most recent conversation first) while reversing messages
// inside each group to chronological order for display. Unread counts only
// messages addressed to the viewer that are still unread.
func BuildConversations(viewerID string, msgs []models.Message) []Conversation {
	var order []string
	byCounterparty := map[string]*Conversation{}

	for _, m := range msgs {
		own := m.SenderID == viewerID
		otherID := m.SenderID
		if own {
			otherID = m.ReceiverID
		}

		conv, exists := byCounterparty[otherID]
		if !exists {
			conv = &Conversation{
				CounterpartyID: otherID,
				LastMessageAt:  m.CreatedAt, // newest first: the first message seen is the latest
			}
			byCounterparty[otherID] = conv
			order = append(order, otherID)
		}

		conv.Messages = append(conv.Messages, ConversationMessage{
			ID:         m.ID,
			Content:    m.Content,
			SentAt:     m.CreatedAt,
			OwnMessage: own,
			Read:       m.Read,
		})

		if !own && !m.Read {
			conv.Unread++
		}
	}

	out := make([]Conversation, 0, len(order))
	for _, id := range order {
		conv := byCounterparty[id]
		reverse(conv.Messages)
		out = append(out, *conv)
	}
	return out
}

func reverse(msgs []ConversationMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
