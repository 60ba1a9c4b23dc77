package admin

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/modules/admin/dto"
	notification "hmcc.com/communityplatform/internal/modules/notification/service"
	search "hmcc.com/communityplatform/internal/modules/search/service"
	userRepo "hmcc.com/communityplatform/internal/modules/user/repository"
	"hmcc.com/communityplatform/pkg/apperror"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type AdminService interface {
	ListPendingUsers(ctx context.Context, filter dto.ListPendingUsersFilter) ([]*entity.User, commonDto.PaginationMeta, error)
	ApproveUser(ctx context.Context, actorID, userID uuid.UUID) error
	RejectUser(ctx context.Context, actorID, userID uuid.UUID, reason string) error
	SuspendUser(ctx context.Context, actorID, userID uuid.UUID) error
	ReactivateUser(ctx context.Context, actorID, userID uuid.UUID) error
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
	Stats(ctx context.Context) (*dto.PlatformStats, error)
}

type adminService struct {
	users         userRepo.UserRepository
	notifications notification.NotificationService
	search        search.SearchService
}

func NewAdminService(users userRepo.UserRepository, notifications notification.NotificationService, searchSvc search.SearchService) AdminService {
	return &adminService{
		users:         users,
		notifications: notifications,
		search:        searchSvc,
	}
}

func (s *adminService) ListPendingUsers(ctx context.Context, filter dto.ListPendingUsersFilter) ([]*entity.User, commonDto.PaginationMeta, error) {
	filter.Normalize(20)

	users, total, err := s.users.FindAll(ctx, filter.Role, entity.StatusPending, "", filter.Limit, filter.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, commonDto.NewPaginationMeta(filter.Page, filter.Limit, total), nil
}

func (s *adminService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ApproveUser activates a pending account and tells the user about it.
func (s *adminService) ApproveUser(ctx context.Context, actorID, userID uuid.UUID) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Status != entity.StatusPending {
		return apperror.New(0, "user is not pending approval", apperror.ErrConflict)
	}

	if err := s.users.UpdateStatus(ctx, userID, entity.StatusActive); err != nil {
		return err
	}

	if s.search != nil {
		user.Status = entity.StatusActive
		if err := s.search.IndexUser(user); err != nil {
			log.Printf("Failed to index user %s: %v", user.ID, err)
		}
	}

	s.notify(ctx, &entity.Notification{
		UserID:     userID,
		ActorID:    actorID,
		EntityID:   userID,
		EntityType: "user",
		Type:       entity.NotificationAccountApproved,
		Message:    "Your account has been approved, welcome aboard",
	})
	return nil
}

func (s *adminService) RejectUser(ctx context.Context, actorID, userID uuid.UUID, reason string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Status != entity.StatusPending {
		return apperror.New(0, "user is not pending approval", apperror.ErrConflict)
	}

	if err := s.users.UpdateStatus(ctx, userID, entity.StatusInactive); err != nil {
		return err
	}

	message := "Your registration was not approved"
	if reason != "" {
		message = fmt.Sprintf("Your registration was not approved: %s", reason)
	}
	s.notify(ctx, &entity.Notification{
		UserID:     userID,
		ActorID:    actorID,
		EntityID:   userID,
		EntityType: "user",
		Type:       entity.NotificationAccountRejected,
		Message:    message,
	})
	return nil
}

func (s *adminService) SuspendUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if err := s.guardTarget(ctx, actorID, userID); err != nil {
		return err
	}
	return s.users.UpdateStatus(ctx, userID, entity.StatusSuspended)
}

func (s *adminService) ReactivateUser(ctx context.Context, actorID, userID uuid.UUID) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Status != entity.StatusSuspended && user.Status != entity.StatusInactive {
		return apperror.New(0, "user is not suspended or inactive", apperror.ErrConflict)
	}
	return s.users.UpdateStatus(ctx, userID, entity.StatusActive)
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if err := s.guardTarget(ctx, actorID, userID); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if s.search != nil {
		if err := s.search.DeleteUser(userID.String()); err != nil {
			log.Printf("Failed to remove user %s from index: %v", userID, err)
		}
	}
	return nil
}

func (s *adminService) Stats(ctx context.Context) (*dto.PlatformStats, error) {
	stats := &dto.PlatformStats{UsersByRole: make(map[string]int64)}

	statuses := map[string]*int64{
		entity.StatusPending:   &stats.PendingUsers,
		entity.StatusActive:    &stats.ActiveUsers,
		entity.StatusSuspended: &stats.SuspendedUsers,
	}
	for status, dest := range statuses {
		count, err := s.users.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		*dest = count
		stats.TotalUsers += count
	}
	inactive, err := s.users.CountByStatus(ctx, entity.StatusInactive)
	if err != nil {
		return nil, err
	}
	stats.TotalUsers += inactive

	roles := []string{
		entity.RoleSuperAdmin, entity.RoleContentAdmin, entity.RoleUserAdmin,
		entity.RoleAnalyticsAdmin, entity.RoleMentor, entity.RoleFellow,
		entity.RoleCommunityAdmin, entity.RoleUser,
	}
	for _, role := range roles {
		count, err := s.users.CountByRole(ctx, role)
		if err != nil {
			return nil, err
		}
		stats.UsersByRole[role] = count
	}
	return stats, nil
}

// guardTarget blocks destructive actions against yourself and against
// super admins.
func (s *adminService) guardTarget(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return apperror.New(0, "you cannot perform this action on your own account", apperror.ErrForbidden)
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == entity.RoleSuperAdmin {
		return apperror.New(0, "super admin accounts cannot be modified", apperror.ErrForbidden)
	}
	return nil
}

func (s *adminService) notify(ctx context.Context, notif *entity.Notification) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.Notify(ctx, notif); err != nil {
		log.Printf("Failed to send notification to %s: %v", notif.UserID, err)
	}
}
