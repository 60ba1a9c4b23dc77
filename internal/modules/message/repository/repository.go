package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/entity"
)

type MessageRepository interface {
	// FindConversationBetween looks up the conversation both users
	// participate in, in either order.
	FindConversationBetween(ctx context.Context, userA, userB uuid.UUID) (*entity.Conversation, error)
	// CreateConversation atomically creates the conversation plus both
	// participant rows with a zero unread counter.
	CreateConversation(ctx context.Context, userA, userB uuid.UUID) (*entity.Conversation, error)

	FindParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*entity.ConversationParticipant, error)
	FindOtherParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*entity.ConversationParticipant, error)
	ListParticipations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.ConversationParticipant, int64, error)
	DeleteParticipant(ctx context.Context, id uuid.UUID) error

	// CreateMessage atomically inserts the message, refreshes the
	// conversation's denormalized last-message fields and increments every
	// other participant's unread counter.
	CreateMessage(ctx context.Context, message *entity.Message) error
	FindMessageByID(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]entity.Message, int64, error)
	FindLastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error)

	// MarkConversationRead atomically flips IsRead on every unread message
	// not sent by userID and resets that participant's unread counter.
	MarkConversationRead(ctx context.Context, conversationID, userID uuid.UUID) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) FindConversationBetween(ctx context.Context, userA, userB uuid.UUID) (*entity.Conversation, error) {
	var conversation entity.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_participants cp1 ON cp1.conversation_id = conversations.id AND cp1.user_id = ?", userA).
		Joins("JOIN conversation_participants cp2 ON cp2.conversation_id = conversations.id AND cp2.user_id = ?", userB).
		Preload("Participants.User").
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *messageRepository) CreateConversation(ctx context.Context, userA, userB uuid.UUID) (*entity.Conversation, error) {
	conversation := &entity.Conversation{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conversation).Error; err != nil {
			return err
		}

		participants := []entity.ConversationParticipant{
			{ConversationID: conversation.ID, UserID: userA},
			{ConversationID: conversation.ID, UserID: userB},
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return nil, err
	}

	return conversation, nil
}

func (r *messageRepository) FindParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*entity.ConversationParticipant, error) {
	var participant entity.ConversationParticipant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *messageRepository) FindOtherParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*entity.ConversationParticipant, error) {
	var participant entity.ConversationParticipant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("conversation_id = ? AND user_id != ?", conversationID, userID).
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *messageRepository) ListParticipations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.ConversationParticipant, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.ConversationParticipant{}).
		Where("conversation_participants.user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var participations []entity.ConversationParticipant
	err := r.db.WithContext(ctx).
		Joins("JOIN conversations ON conversations.id = conversation_participants.conversation_id").
		Where("conversation_participants.user_id = ?", userID).
		Order("COALESCE(conversations.last_message_at, conversations.created_at) DESC").
		Limit(limit).
		Offset(offset).
		Preload("Conversation").
		Find(&participations).Error
	if err != nil {
		return nil, 0, err
	}

	return participations, total, nil
}

func (r *messageRepository) DeleteParticipant(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.ConversationParticipant{}, "id = ?", id).Error
}

func (r *messageRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&entity.Conversation{}).
			Where("id = ?", message.ConversationID).
			Updates(map[string]any{
				"last_message":    message.Content,
				"last_message_at": now,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&entity.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id != ?", message.ConversationID, message.SenderID).
			UpdateColumn("unread_count", gorm.Expr("unread_count + 1")).Error
	})
}

func (r *messageRepository) FindMessageByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	var message entity.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		First(&message, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]entity.Message, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []entity.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *messageRepository) FindLastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error) {
	var message entity.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Message{}).
			Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conversationID, userID, false).
			Update("is_read", true).Error; err != nil {
			return err
		}

		return tx.Model(&entity.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Update("unread_count", 0).Error
	})
}
