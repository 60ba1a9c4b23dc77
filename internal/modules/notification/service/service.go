package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"hmcc.com/communityplatform/internal/entity"
	notifRepo "hmcc.com/communityplatform/internal/modules/notification/repository"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

// UserChannel is the redis pub/sub channel carrying a user's live
// notification stream.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID)
}

type NotificationService interface {
	Notify(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, page, limit int) ([]entity.Notification, commonDto.PaginationMeta, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

// Notify persists the notification and pushes it to the recipient's live
// channel when redis is available.
func (s *notificationService) Notify(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			s.redisClient.Publish(ctx, UserChannel(notification.UserID), payload)
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, page, limit int) ([]entity.Notification, commonDto.PaginationMeta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	notifications, total, err := s.repo.GetByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	return notifications, commonDto.NewPaginationMeta(page, limit, total), nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
