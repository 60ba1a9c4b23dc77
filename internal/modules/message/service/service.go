package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/modules/message/dto"
	"hmcc.com/communityplatform/internal/modules/message/repository"
	userRepo "hmcc.com/communityplatform/internal/modules/user/repository"
	"hmcc.com/communityplatform/pkg/apperror"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type MessageService interface {
	// FindOrCreateConversation returns the existing conversation between the
	// two users or creates a new one; created reports which happened.
	FindOrCreateConversation(ctx context.Context, userID, otherUserID uuid.UUID) (resp *dto.ConversationResponse, created bool, err error)
	ListConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]dto.ConversationSummary, commonDto.PaginationMeta, error)
	SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*dto.MessageResponse, error)
	ListMessages(ctx context.Context, conversationID, requesterID uuid.UUID, page, limit int) ([]dto.MessageResponse, commonDto.PaginationMeta, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error
	LeaveConversation(ctx context.Context, conversationID, userID uuid.UUID) error

	// VerifyParticipant gates realtime room joins on actual membership.
	VerifyParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
}

// ConversationChannel is the redis pub/sub channel backing a conversation's
// realtime room.
func ConversationChannel(conversationID uuid.UUID) string {
	return fmt.Sprintf("conversation:%s", conversationID)
}

type messageService struct {
	repo        repository.MessageRepository
	users       userRepo.UserRepository
	redisClient *redis.Client
}

func NewMessageService(repo repository.MessageRepository, users userRepo.UserRepository, redisClient *redis.Client) MessageService {
	return &messageService{
		repo:        repo,
		users:       users,
		redisClient: redisClient,
	}
}

func (s *messageService) FindOrCreateConversation(ctx context.Context, userID, otherUserID uuid.UUID) (*dto.ConversationResponse, bool, error) {
	if userID == otherUserID {
		return nil, false, apperror.ErrSelfConversation
	}

	if conversation, err := s.repo.FindConversationBetween(ctx, userID, otherUserID); err == nil {
		return &dto.ConversationResponse{
			ID:        conversation.ID,
			OtherUser: otherUserSummary(conversation, userID),
		}, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	otherUser, err := s.users.FindByID(ctx, otherUserID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperror.ErrNotFound
		}
		return nil, false, err
	}

	conversation, err := s.repo.CreateConversation(ctx, userID, otherUserID)
	if err != nil {
		return nil, false, err
	}

	log.Printf("Conversation %s created between users %s and %s", conversation.ID, userID, otherUserID)

	return &dto.ConversationResponse{
		ID: conversation.ID,
		OtherUser: &commonDto.UserSummary{
			ID:        otherUser.ID,
			Name:      otherUser.Name,
			AvatarURL: otherUser.AvatarURL,
		},
	}, true, nil
}

func (s *messageService) ListConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]dto.ConversationSummary, commonDto.PaginationMeta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	participations, total, err := s.repo.ListParticipations(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	summaries := make([]dto.ConversationSummary, 0, len(participations))
	for _, p := range participations {
		summary := dto.ConversationSummary{
			ID:          p.ConversationID,
			UnreadCount: p.UnreadCount,
		}

		if p.Conversation != nil {
			summary.LastMessageAt = p.Conversation.CreatedAt
			if p.Conversation.LastMessageAt != nil {
				summary.LastMessageAt = *p.Conversation.LastMessageAt
			}
		}

		if other, err := s.repo.FindOtherParticipant(ctx, p.ConversationID, userID); err == nil && other.User != nil {
			summary.OtherUser = &commonDto.UserSummary{
				ID:        other.User.ID,
				Name:      other.User.Name,
				AvatarURL: other.User.AvatarURL,
			}
		}

		if last, err := s.repo.FindLastMessage(ctx, p.ConversationID); err == nil {
			summary.LastMessage = &dto.LastMessagePreview{
				Content:   last.Content,
				SenderID:  last.SenderID,
				Timestamp: last.CreatedAt,
			}
		}

		summaries = append(summaries, summary)
	}

	return summaries, commonDto.NewPaginationMeta(page, limit, total), nil
}

func (s *messageService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*dto.MessageResponse, error) {
	if err := s.VerifyParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	// Reload with sender attached for the response and the broadcast.
	stored, err := s.repo.FindMessageByID(ctx, message.ID)
	if err != nil {
		return nil, err
	}

	resp := toMessageResponse(stored)
	s.publish(ctx, conversationID, dto.ServerEvent{
		Event: dto.EventNewMessage,
		Data:  resp,
	})

	return resp, nil
}

func (s *messageService) ListMessages(ctx context.Context, conversationID, requesterID uuid.UUID, page, limit int) ([]dto.MessageResponse, commonDto.PaginationMeta, error) {
	if err := s.VerifyParticipant(ctx, conversationID, requesterID); err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	messages, total, err := s.repo.ListMessages(ctx, conversationID, limit, (page-1)*limit)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	// The repository pages newest-first; flip each page oldest-first for
	// display.
	responses := make([]dto.MessageResponse, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		responses = append(responses, *toMessageResponse(&messages[i]))
	}

	return responses, commonDto.NewPaginationMeta(page, limit, total), nil
}

func (s *messageService) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	if err := s.VerifyParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.repo.MarkConversationRead(ctx, conversationID, userID)
}

func (s *messageService) LeaveConversation(ctx context.Context, conversationID, userID uuid.UUID) error {
	participant, err := s.repo.FindParticipant(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotParticipant
		}
		return err
	}

	// Only the caller's own participant row goes away; the conversation and
	// the other side's history stay.
	if err := s.repo.DeleteParticipant(ctx, participant.ID); err != nil {
		return err
	}

	log.Printf("User %s left conversation %s", userID, conversationID)
	return nil
}

func (s *messageService) VerifyParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	if _, err := s.repo.FindParticipant(ctx, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotParticipant
		}
		return err
	}
	return nil
}

// publish fans the event out to the conversation's room. Delivery is
// best-effort; a failure is logged, never surfaced to the sender.
func (s *messageService) publish(ctx context.Context, conversationID uuid.UUID, event dto.ServerEvent) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.redisClient.Publish(ctx, ConversationChannel(conversationID), payload).Err(); err != nil {
		log.Printf("failed to publish %s to conversation %s: %v", event.Event, conversationID, err)
	}
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	resp := &dto.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		IsRead:         m.IsRead,
		Timestamp:      m.CreatedAt,
	}
	if m.Sender != nil {
		resp.Sender = &commonDto.UserSummary{
			ID:        m.Sender.ID,
			Name:      m.Sender.Name,
			AvatarURL: m.Sender.AvatarURL,
		}
	}
	return resp
}

func otherUserSummary(conversation *entity.Conversation, userID uuid.UUID) *commonDto.UserSummary {
	for _, p := range conversation.Participants {
		if p.UserID != userID && p.User != nil {
			return &commonDto.UserSummary{
				ID:        p.User.ID,
				Name:      p.User.Name,
				AvatarURL: p.User.AvatarURL,
			}
		}
	}
	return nil
}
