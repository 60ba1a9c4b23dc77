package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"hmcc.com/communityplatform/internal/modules/message/dto"
	message "hmcc.com/communityplatform/internal/modules/message/service"
)

// Handler is the realtime side of messaging. Each connection joins and
// leaves conversation rooms (redis pub/sub channels); joining re-validates
// that the caller actually participates in the conversation. Delivery is
// best-effort and at-most-once; a disconnected client catches up over REST.
type Handler struct {
	service     message.MessageService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewHandler(service message.MessageService, redisClient *redis.Client) *Handler {
	return &Handler{
		service:     service,
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS is enforced on the REST surface
			},
		},
	}
}

// room tracks one joined conversation channel for a connection.
type room struct {
	pubsub *redis.PubSub
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userIDStr := c.GetString("user_id")
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if h.redisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime messaging is unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	connID := uuid.NewString()

	// Outbound frames from all joined rooms funnel through one channel so a
	// single writer owns the connection.
	out := make(chan []byte, 64)
	rooms := make(map[uuid.UUID]*room)
	clientClosed := make(chan struct{})

	go func() {
		// The read goroutine owns the rooms map; subscriptions are torn
		// down here once the client goes away.
		defer func() {
			for _, r := range rooms {
				_ = r.pubsub.Close()
			}
			close(clientClosed)
		}()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var event dto.ClientEvent
			if err := json.Unmarshal(raw, &event); err != nil {
				continue
			}
			h.handleClientEvent(ctx, event, userID, connID, rooms, out)
		}
	}()

	for {
		select {
		case payload := <-out:
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("Failed to write message to websocket: %v", err)
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleClientEvent runs on the connection's read goroutine, which is the
// only writer of the rooms map.
func (h *Handler) handleClientEvent(ctx context.Context, event dto.ClientEvent, userID uuid.UUID, connID string, rooms map[uuid.UUID]*room, out chan<- []byte) {
	conversationID, err := uuid.Parse(event.ConversationID)
	if err != nil {
		return
	}

	switch event.Event {
	case dto.EventJoinConversation:
		if _, joined := rooms[conversationID]; joined {
			return // idempotent
		}
		// Only actual participants may enter the room.
		if err := h.service.VerifyParticipant(ctx, conversationID, userID); err != nil {
			return
		}

		pubsub := h.redisClient.Subscribe(ctx, message.ConversationChannel(conversationID))
		if _, err := pubsub.Receive(ctx); err != nil {
			log.Printf("Failed to subscribe to conversation %s: %v", conversationID, err)
			_ = pubsub.Close()
			return
		}

		rooms[conversationID] = &room{pubsub: pubsub}
		go forward(pubsub, out, connID)

	case dto.EventLeaveConversation:
		if r, joined := rooms[conversationID]; joined {
			_ = r.pubsub.Close()
			delete(rooms, conversationID)
		}

	case dto.EventSendMessage:
		if event.Content == "" {
			return
		}
		// Persists and broadcasts; participant check happens inside.
		if _, err := h.service.SendMessage(ctx, conversationID, userID, event.Content); err != nil {
			log.Printf("Failed to send message over websocket: %v", err)
		}

	case dto.EventTyping:
		if _, joined := rooms[conversationID]; !joined {
			return
		}
		payload, err := json.Marshal(dto.ServerEvent{
			Event: dto.EventUserTyping,
			Data: dto.TypingPayload{
				ConversationID: conversationID,
				UserID:         userID,
				IsTyping:       event.IsTyping,
			},
			Origin: connID,
		})
		if err != nil {
			return
		}
		if err := h.redisClient.Publish(ctx, message.ConversationChannel(conversationID), payload).Err(); err != nil {
			log.Printf("Failed to publish typing indicator: %v", err)
		}
	}
}

// forward pumps room events to the connection, dropping typing indicators
// that originated on this very connection. A full outbound buffer drops the
// frame: delivery is best-effort.
func forward(pubsub *redis.PubSub, out chan<- []byte, connID string) {
	for msg := range pubsub.Channel() {
		var envelope dto.ServerEvent
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			continue
		}
		if envelope.Event == dto.EventUserTyping && envelope.Origin == connID {
			continue
		}

		select {
		case out <- []byte(msg.Payload):
		default:
		}
	}
}
