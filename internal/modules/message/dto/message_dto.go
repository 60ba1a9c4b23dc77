package dto

import (
	"time"

	"github.com/google/uuid"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type CreateConversationRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"required,uuid"`
	Content        string `json:"content" binding:"required,max=5000"`
}

type ConversationResponse struct {
	ID        uuid.UUID             `json:"id"`
	OtherUser *commonDto.UserSummary `json:"other_user"`
}

type LastMessagePreview struct {
	Content   string    `json:"content"`
	SenderID  uuid.UUID `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSummary is the list-view shape: the other party, the most
// recent message and the caller's own unread counter.
type ConversationSummary struct {
	ID            uuid.UUID              `json:"id"`
	OtherUser     *commonDto.UserSummary `json:"other_user"`
	LastMessage   *LastMessagePreview    `json:"last_message"`
	UnreadCount   int                    `json:"unread_count"`
	LastMessageAt time.Time              `json:"last_message_at"`
}

type MessageResponse struct {
	ID             uuid.UUID              `json:"id"`
	ConversationID uuid.UUID              `json:"conversation_id"`
	SenderID       uuid.UUID              `json:"sender_id"`
	Content        string                 `json:"content"`
	IsRead         bool                   `json:"is_read"`
	Timestamp      time.Time              `json:"timestamp"`
	Sender         *commonDto.UserSummary `json:"sender"`
}

// Realtime envelope, both directions. Origin identifies the WS connection a
// client event came from so typing indicators can be suppressed there.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventTyping            = "typing"
	EventNewMessage        = "new_message"
	EventUserTyping        = "user_typing"
)

type ClientEvent struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content,omitempty"`
	IsTyping       bool   `json:"is_typing,omitempty"`
}

type ServerEvent struct {
	Event  string `json:"event"`
	Data   any    `json:"data"`
	Origin string `json:"origin,omitempty"`
}

type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	IsTyping       bool      `json:"is_typing"`
}
