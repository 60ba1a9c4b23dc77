package announcement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/modules/announcement/dto"
	announcementRepo "hmcc.com/communityplatform/internal/modules/announcement/repository"
	"hmcc.com/communityplatform/internal/ratelimit"
	"hmcc.com/communityplatform/pkg/apperror"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type AnnouncementService interface {
	// ListForRole returns active announcements visible to the given role.
	ListForRole(ctx context.Context, role string, page, limit int) ([]dto.AnnouncementResponse, commonDto.PaginationMeta, error)
	ListAll(ctx context.Context, page, limit int) ([]dto.AnnouncementResponse, commonDto.PaginationMeta, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AnnouncementResponse, error)
	Create(ctx context.Context, authorID uuid.UUID, req dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type announcementService struct {
	repo        announcementRepo.AnnouncementRepository
	redisClient *redis.Client
	sanitizer   *bluemonday.Policy
	cooldown    time.Duration
}

func NewAnnouncementService(repo announcementRepo.AnnouncementRepository, redisClient *redis.Client, cooldown time.Duration) AnnouncementService {
	return &announcementService{
		repo:        repo,
		redisClient: redisClient,
		sanitizer:   bluemonday.UGCPolicy(),
		cooldown:    cooldown,
	}
}

func audiencesForRole(role string) []string {
	switch {
	case entity.IsAdminRole(role):
		return []string{entity.AudienceAll, entity.AudienceFellows, entity.AudienceMentors}
	case role == entity.RoleFellow:
		return []string{entity.AudienceAll, entity.AudienceFellows}
	case role == entity.RoleMentor:
		return []string{entity.AudienceAll, entity.AudienceMentors}
	default:
		return []string{entity.AudienceAll}
	}
}

func (s *announcementService) ListForRole(ctx context.Context, role string, page, limit int) ([]dto.AnnouncementResponse, commonDto.PaginationMeta, error) {
	announcements, total, err := s.repo.FindActiveForAudiences(ctx, audiencesForRole(role), limit, (page-1)*limit)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	return toResponses(announcements), commonDto.NewPaginationMeta(page, limit, total), nil
}

func (s *announcementService) ListAll(ctx context.Context, page, limit int) ([]dto.AnnouncementResponse, commonDto.PaginationMeta, error) {
	announcements, total, err := s.repo.FindAll(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	return toResponses(announcements), commonDto.NewPaginationMeta(page, limit, total), nil
}

func (s *announcementService) Get(ctx context.Context, id uuid.UUID) (*dto.AnnouncementResponse, error) {
	announcement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(announcement)
	return &resp, nil
}

func (s *announcementService) Create(ctx context.Context, authorID uuid.UUID, req dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	allowed, err := ratelimit.CheckAndSet(ctx, s.redisClient, authorID.String(), "announcement", s.cooldown)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		ttl, _ := ratelimit.TTL(ctx, s.redisClient, authorID.String(), "announcement")
		return nil, apperror.New(0,
			fmt.Sprintf("you are publishing too fast, please wait %.0f seconds", ttl.Seconds()),
			apperror.ErrRateLimitExceeded)
	}

	created := false
	defer func() {
		if !created {
			_ = ratelimit.Clear(ctx, s.redisClient, authorID.String(), "announcement")
		}
	}()

	audience := req.Audience
	if audience == "" {
		audience = entity.AudienceAll
	}

	announcement := &entity.Announcement{
		AuthorID: authorID,
		Title:    s.sanitizer.Sanitize(req.Title),
		Body:     s.sanitizer.Sanitize(req.Body),
		Audience: audience,
		Status:   entity.AnnouncementStatusActive,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, err
	}

	created = true
	return s.Get(ctx, announcement.ID)
}

func (s *announcementService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	announcement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		announcement.Title = s.sanitizer.Sanitize(*req.Title)
	}
	if req.Body != nil {
		announcement.Body = s.sanitizer.Sanitize(*req.Body)
	}
	if req.Audience != nil {
		announcement.Audience = *req.Audience
	}
	if req.Status != nil {
		announcement.Status = *req.Status
	}

	if err := s.repo.Update(ctx, announcement); err != nil {
		return nil, err
	}
	resp := toResponse(announcement)
	return &resp, nil
}

func (s *announcementService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func toResponse(a *entity.Announcement) dto.AnnouncementResponse {
	resp := dto.AnnouncementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Audience:  a.Audience,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Author != nil {
		resp.Author = commonDto.UserSummary{
			ID:        a.Author.ID,
			Name:      a.Author.Name,
			AvatarURL: a.Author.AvatarURL,
		}
	}
	return resp
}

func toResponses(announcements []entity.Announcement) []dto.AnnouncementResponse {
	responses := make([]dto.AnnouncementResponse, 0, len(announcements))
	for i := range announcements {
		responses = append(responses, toResponse(&announcements[i]))
	}
	return responses
}
