package community

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/modules/community/dto"
	communityRepo "hmcc.com/communityplatform/internal/modules/community/repository"
	notification "hmcc.com/communityplatform/internal/modules/notification/service"
	search "hmcc.com/communityplatform/internal/modules/search/service"
	"hmcc.com/communityplatform/pkg/apperror"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type CommunityService interface {
	ListCommunities(ctx context.Context, viewerID uuid.UUID, filter dto.ListCommunitiesFilter) ([]dto.CommunityResponse, commonDto.PaginationMeta, error)
	GetCommunity(ctx context.Context, viewerID, id uuid.UUID) (*dto.CommunityResponse, error)
	CreateCommunity(ctx context.Context, creatorID uuid.UUID, req dto.CreateCommunityRequest) (*dto.CommunityResponse, error)
	UpdateCommunity(ctx context.Context, actorID, id uuid.UUID, req dto.UpdateCommunityRequest) (*dto.CommunityResponse, error)
	DeleteCommunity(ctx context.Context, actorID, id uuid.UUID) error
	Join(ctx context.Context, userID, id uuid.UUID) error
	Leave(ctx context.Context, userID, id uuid.UUID) error
	ListMembers(ctx context.Context, id uuid.UUID, page, limit int) ([]dto.MemberResponse, commonDto.PaginationMeta, error)

	ListPending(ctx context.Context, page, limit int) ([]dto.CommunityResponse, commonDto.PaginationMeta, error)
	Approve(ctx context.Context, actorID, id uuid.UUID) error
	Reject(ctx context.Context, actorID, id uuid.UUID) error
}

type communityService struct {
	repo          communityRepo.CommunityRepository
	search        search.SearchService
	notifications notification.NotificationService
}

func NewCommunityService(repo communityRepo.CommunityRepository, searchSvc search.SearchService, notifications notification.NotificationService) CommunityService {
	return &communityService{
		repo:          repo,
		search:        searchSvc,
		notifications: notifications,
	}
}

func (s *communityService) ListCommunities(ctx context.Context, viewerID uuid.UUID, filter dto.ListCommunitiesFilter) ([]dto.CommunityResponse, commonDto.PaginationMeta, error) {
	filter.Normalize(20)

	communities, total, err := s.repo.FindAll(ctx, communityRepo.CommunityFilter{
		Status:   entity.CommunityStatusActive,
		Category: filter.Category,
		Search:   filter.Search,
		Limit:    filter.Limit,
		Offset:   filter.Offset(),
	})
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	memberships, err := s.membershipSet(ctx, viewerID)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	responses := make([]dto.CommunityResponse, 0, len(communities))
	for i := range communities {
		resp, err := s.toResponse(ctx, &communities[i], memberships)
		if err != nil {
			return nil, commonDto.PaginationMeta{}, err
		}
		responses = append(responses, *resp)
	}

	return responses, commonDto.NewPaginationMeta(filter.Page, filter.Limit, total), nil
}

func (s *communityService) GetCommunity(ctx context.Context, viewerID, id uuid.UUID) (*dto.CommunityResponse, error) {
	community, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	memberships, err := s.membershipSet(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, community, memberships)
}

// CreateCommunity registers a pending community with the creator as its
// admin member. It only becomes visible in listings once an administrator
// approves it.
func (s *communityService) CreateCommunity(ctx context.Context, creatorID uuid.UUID, req dto.CreateCommunityRequest) (*dto.CommunityResponse, error) {
	slug := slugify(req.Name)
	if existing, _ := s.repo.FindBySlug(ctx, slug); existing != nil {
		return nil, apperror.New(0, "a community with this name already exists", apperror.ErrConflict)
	}

	category := req.Category
	if category == "" {
		category = "Social"
	}

	community := &entity.Community{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Category:    category,
		Status:      entity.CommunityStatusPending,
	}
	if err := s.repo.Create(ctx, community, creatorID); err != nil {
		return nil, err
	}

	return &dto.CommunityResponse{
		ID:          community.ID,
		Name:        community.Name,
		Slug:        community.Slug,
		Description: community.Description,
		Category:    community.Category,
		Status:      community.Status,
		MemberCount: 1,
		IsMember:    true,
		CreatedAt:   community.CreatedAt,
	}, nil
}

func (s *communityService) UpdateCommunity(ctx context.Context, actorID, id uuid.UUID, req dto.UpdateCommunityRequest) (*dto.CommunityResponse, error) {
	if err := s.requireCommunityAdmin(ctx, id, actorID); err != nil {
		return nil, err
	}

	community, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		community.Name = *req.Name
	}
	if req.Description != nil {
		community.Description = *req.Description
	}
	if req.Category != nil {
		community.Category = *req.Category
	}

	if err := s.repo.Update(ctx, community); err != nil {
		return nil, err
	}

	if s.search != nil && community.Status == entity.CommunityStatusActive {
		if err := s.search.IndexCommunity(community); err != nil {
			log.Printf("Failed to index community %s: %v", community.ID, err)
		}
	}

	memberships, err := s.membershipSet(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, community, memberships)
}

func (s *communityService) DeleteCommunity(ctx context.Context, actorID, id uuid.UUID) error {
	if err := s.requireCommunityAdmin(ctx, id, actorID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteCommunity(id.String()); err != nil {
			log.Printf("Failed to remove community %s from index: %v", id, err)
		}
	}
	return nil
}

func (s *communityService) Join(ctx context.Context, userID, id uuid.UUID) error {
	community, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if community.Status != entity.CommunityStatusActive {
		return apperror.ErrNotFound
	}

	if _, err := s.repo.FindMember(ctx, id, userID); err == nil {
		return apperror.New(0, "you are already a member of this community", apperror.ErrConflict)
	}

	return s.repo.AddMember(ctx, &entity.CommunityMember{
		CommunityID: id,
		UserID:      userID,
		Role:        entity.CommunityMemberRoleMember,
	})
}

func (s *communityService) Leave(ctx context.Context, userID, id uuid.UUID) error {
	member, err := s.repo.FindMember(ctx, id, userID)
	if err != nil {
		return err
	}
	if member.Role == entity.CommunityMemberRoleAdmin {
		return apperror.New(0, "community admins cannot leave their own community", apperror.ErrForbidden)
	}
	return s.repo.RemoveMember(ctx, id, userID)
}

func (s *communityService) ListMembers(ctx context.Context, id uuid.UUID, page, limit int) ([]dto.MemberResponse, commonDto.PaginationMeta, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	members, total, err := s.repo.ListMembers(ctx, id, limit, (page-1)*limit)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	responses := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		resp := dto.MemberResponse{
			ID:       m.ID,
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		}
		if m.User != nil {
			resp.User = commonDto.UserSummary{
				ID:        m.User.ID,
				Name:      m.User.Name,
				AvatarURL: m.User.AvatarURL,
			}
		}
		responses = append(responses, resp)
	}
	return responses, commonDto.NewPaginationMeta(page, limit, total), nil
}

func (s *communityService) ListPending(ctx context.Context, page, limit int) ([]dto.CommunityResponse, commonDto.PaginationMeta, error) {
	communities, total, err := s.repo.FindAll(ctx, communityRepo.CommunityFilter{
		Status: entity.CommunityStatusPending,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	responses := make([]dto.CommunityResponse, 0, len(communities))
	for i := range communities {
		resp, err := s.toResponse(ctx, &communities[i], nil)
		if err != nil {
			return nil, commonDto.PaginationMeta{}, err
		}
		responses = append(responses, *resp)
	}
	return responses, commonDto.NewPaginationMeta(page, limit, total), nil
}

// Approve activates a pending community, notifies its admin members and
// makes it searchable.
func (s *communityService) Approve(ctx context.Context, actorID, id uuid.UUID) error {
	community, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if community.Status != entity.CommunityStatusPending {
		return apperror.New(0, "community is not pending approval", apperror.ErrConflict)
	}

	if err := s.repo.UpdateStatus(ctx, id, entity.CommunityStatusActive); err != nil {
		return err
	}
	community.Status = entity.CommunityStatusActive

	if s.search != nil {
		if err := s.search.IndexCommunity(community); err != nil {
			log.Printf("Failed to index community %s: %v", community.ID, err)
		}
	}

	if s.notifications != nil {
		members, _, err := s.repo.ListMembers(ctx, id, 100, 0)
		if err != nil {
			log.Printf("Failed to load members of community %s: %v", id, err)
			return nil
		}
		for _, m := range members {
			if m.Role != entity.CommunityMemberRoleAdmin {
				continue
			}
			notif := &entity.Notification{
				UserID:     m.UserID,
				ActorID:    actorID,
				EntityID:   community.ID,
				EntityType: "community",
				Type:       entity.NotificationCommunityApproved,
				Message:    fmt.Sprintf("Your community %q has been approved", community.Name),
			}
			if err := s.notifications.Notify(ctx, notif); err != nil {
				log.Printf("Failed to notify user %s: %v", m.UserID, err)
			}
		}
	}
	return nil
}

func (s *communityService) Reject(ctx context.Context, actorID, id uuid.UUID) error {
	community, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if community.Status != entity.CommunityStatusPending {
		return apperror.New(0, "community is not pending approval", apperror.ErrConflict)
	}
	return s.repo.UpdateStatus(ctx, id, entity.CommunityStatusArchived)
}

func (s *communityService) requireCommunityAdmin(ctx context.Context, communityID, userID uuid.UUID) error {
	member, err := s.repo.FindMember(ctx, communityID, userID)
	if err != nil {
		return apperror.ErrForbidden
	}
	if member.Role != entity.CommunityMemberRoleAdmin {
		return apperror.ErrForbidden
	}
	return nil
}

func (s *communityService) membershipSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	ids, err := s.repo.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *communityService) toResponse(ctx context.Context, community *entity.Community, memberships map[uuid.UUID]bool) (*dto.CommunityResponse, error) {
	count, err := s.repo.CountMembers(ctx, community.ID)
	if err != nil {
		return nil, err
	}
	return &dto.CommunityResponse{
		ID:          community.ID,
		Name:        community.Name,
		Slug:        community.Slug,
		Description: community.Description,
		Category:    community.Category,
		AvatarURL:   community.AvatarURL,
		Status:      community.Status,
		MemberCount: count,
		IsMember:    memberships[community.ID],
		CreatedAt:   community.CreatedAt,
	}, nil
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
