package event

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"hmcc.com/communityplatform/internal/entity"
	communityRepo "hmcc.com/communityplatform/internal/modules/community/repository"
	"hmcc.com/communityplatform/internal/modules/event/dto"
	eventRepo "hmcc.com/communityplatform/internal/modules/event/repository"
	notification "hmcc.com/communityplatform/internal/modules/notification/service"
	search "hmcc.com/communityplatform/internal/modules/search/service"
	"hmcc.com/communityplatform/pkg/apperror"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type EventService interface {
	ListEvents(ctx context.Context, viewerID uuid.UUID, filter dto.ListEventsFilter) ([]dto.EventResponse, commonDto.PaginationMeta, error)
	GetEvent(ctx context.Context, viewerID, id uuid.UUID) (*dto.EventResponse, error)
	CreateEvent(ctx context.Context, actorID uuid.UUID, actorRole string, req dto.CreateEventRequest) (*dto.EventResponse, error)
	UpdateEvent(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, req dto.UpdateEventRequest) (*dto.EventResponse, error)
	DeleteEvent(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error
	Register(ctx context.Context, userID, id uuid.UUID) error
	Unregister(ctx context.Context, userID, id uuid.UUID) error
	ListAttendees(ctx context.Context, id uuid.UUID, page, limit int) ([]dto.AttendeeResponse, commonDto.PaginationMeta, error)
}

type eventService struct {
	repo          eventRepo.EventRepository
	communities   communityRepo.CommunityRepository
	search        search.SearchService
	notifications notification.NotificationService
}

func NewEventService(repo eventRepo.EventRepository, communities communityRepo.CommunityRepository, searchSvc search.SearchService, notifications notification.NotificationService) EventService {
	return &eventService{
		repo:          repo,
		communities:   communities,
		search:        searchSvc,
		notifications: notifications,
	}
}

func (s *eventService) ListEvents(ctx context.Context, viewerID uuid.UUID, filter dto.ListEventsFilter) ([]dto.EventResponse, commonDto.PaginationMeta, error) {
	filter.Normalize(20)

	repoFilter := eventRepo.EventFilter{
		Limit:  filter.Limit,
		Offset: filter.Offset(),
	}
	if filter.CommunityID != "" {
		id, err := uuid.Parse(filter.CommunityID)
		if err != nil {
			return nil, commonDto.PaginationMeta{}, apperror.ErrInvalidInput
		}
		repoFilter.CommunityID = &id
	}
	if filter.Upcoming {
		now := time.Now()
		repoFilter.After = &now
	}

	events, total, err := s.repo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	registrations, err := s.registrationSet(ctx, viewerID)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	responses := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp, err := s.toResponse(ctx, &events[i], registrations)
		if err != nil {
			return nil, commonDto.PaginationMeta{}, err
		}
		responses = append(responses, *resp)
	}
	return responses, commonDto.NewPaginationMeta(filter.Page, filter.Limit, total), nil
}

func (s *eventService) GetEvent(ctx context.Context, viewerID, id uuid.UUID) (*dto.EventResponse, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	registrations, err := s.registrationSet(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, event, registrations)
}

// CreateEvent lets platform admins create standalone events and community
// admins create events scoped to their community. Community members get
// notified about new events in their community.
func (s *eventService) CreateEvent(ctx context.Context, actorID uuid.UUID, actorRole string, req dto.CreateEventRequest) (*dto.EventResponse, error) {
	if err := s.authorize(ctx, actorID, actorRole, req.CommunityID); err != nil {
		return nil, err
	}
	if req.EndsAt != nil && req.EndsAt.Before(req.StartsAt) {
		return nil, apperror.New(0, "event cannot end before it starts", apperror.ErrInvalidInput)
	}

	event := &entity.Event{
		CommunityID: req.CommunityID,
		CreatedBy:   actorID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexEvent(event); err != nil {
			log.Printf("Failed to index event %s: %v", event.ID, err)
		}
	}

	if req.CommunityID != nil {
		s.notifyCommunity(ctx, actorID, *req.CommunityID, event)
	}

	return s.toResponse(ctx, event, nil)
}

func (s *eventService) UpdateEvent(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, req dto.UpdateEventRequest) (*dto.EventResponse, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeExisting(ctx, actorID, actorRole, event); err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = req.EndsAt
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}
	if event.EndsAt != nil && event.EndsAt.Before(event.StartsAt) {
		return nil, apperror.New(0, "event cannot end before it starts", apperror.ErrInvalidInput)
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexEvent(event); err != nil {
			log.Printf("Failed to index event %s: %v", event.ID, err)
		}
	}

	registrations, err := s.registrationSet(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, event, registrations)
}

func (s *eventService) DeleteEvent(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeExisting(ctx, actorID, actorRole, event); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteEvent(id.String()); err != nil {
			log.Printf("Failed to remove event %s from index: %v", id, err)
		}
	}
	return nil
}

func (s *eventService) Register(ctx context.Context, userID, id uuid.UUID) error {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if event.StartsAt.Before(time.Now()) {
		return apperror.New(0, "event has already started", apperror.ErrConflict)
	}
	if _, err := s.repo.FindAttendee(ctx, id, userID); err == nil {
		return apperror.New(0, "you are already registered for this event", apperror.ErrConflict)
	}
	return s.repo.Register(ctx, event, userID)
}

func (s *eventService) Unregister(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Unregister(ctx, id, userID)
}

func (s *eventService) ListAttendees(ctx context.Context, id uuid.UUID, page, limit int) ([]dto.AttendeeResponse, commonDto.PaginationMeta, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	attendees, total, err := s.repo.ListAttendees(ctx, id, limit, (page-1)*limit)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	responses := make([]dto.AttendeeResponse, 0, len(attendees))
	for _, a := range attendees {
		resp := dto.AttendeeResponse{
			ID:           a.ID,
			RegisteredAt: a.CreatedAt,
		}
		if a.User != nil {
			resp.User = commonDto.UserSummary{
				ID:        a.User.ID,
				Name:      a.User.Name,
				AvatarURL: a.User.AvatarURL,
			}
		}
		responses = append(responses, resp)
	}
	return responses, commonDto.NewPaginationMeta(page, limit, total), nil
}

func (s *eventService) authorize(ctx context.Context, actorID uuid.UUID, actorRole string, communityID *uuid.UUID) error {
	if entity.IsAdminRole(actorRole) {
		return nil
	}
	if communityID == nil {
		return apperror.ErrForbidden
	}
	member, err := s.communities.FindMember(ctx, *communityID, actorID)
	if err != nil || member.Role != entity.CommunityMemberRoleAdmin {
		return apperror.ErrForbidden
	}
	return nil
}

func (s *eventService) authorizeExisting(ctx context.Context, actorID uuid.UUID, actorRole string, event *entity.Event) error {
	if event.CreatedBy == actorID {
		return nil
	}
	return s.authorize(ctx, actorID, actorRole, event.CommunityID)
}

func (s *eventService) notifyCommunity(ctx context.Context, actorID, communityID uuid.UUID, event *entity.Event) {
	if s.notifications == nil {
		return
	}
	members, _, err := s.communities.ListMembers(ctx, communityID, 500, 0)
	if err != nil {
		log.Printf("Failed to load members of community %s: %v", communityID, err)
		return
	}
	for _, m := range members {
		if m.UserID == actorID {
			continue
		}
		notif := &entity.Notification{
			UserID:     m.UserID,
			ActorID:    actorID,
			EntityID:   event.ID,
			EntityType: "event",
			Type:       entity.NotificationEventCreated,
			Message:    fmt.Sprintf("New event in your community: %s", event.Title),
		}
		if err := s.notifications.Notify(ctx, notif); err != nil {
			log.Printf("Failed to notify user %s: %v", m.UserID, err)
		}
	}
}

func (s *eventService) registrationSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	ids, err := s.repo.ListRegistrations(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *eventService) toResponse(ctx context.Context, event *entity.Event, registrations map[uuid.UUID]bool) (*dto.EventResponse, error) {
	count, err := s.repo.CountAttendees(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &dto.EventResponse{
		ID:            event.ID,
		CommunityID:   event.CommunityID,
		Title:         event.Title,
		Description:   event.Description,
		Location:      event.Location,
		StartsAt:      event.StartsAt,
		EndsAt:        event.EndsAt,
		Capacity:      event.Capacity,
		ImageURL:      event.ImageURL,
		AttendeeCount: count,
		IsRegistered:  registrations[event.ID],
		CreatedAt:     event.CreatedAt,
	}, nil
}
