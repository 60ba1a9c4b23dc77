package discover

import (
	"context"

	"github.com/google/uuid"
	communityDto "hmcc.com/communityplatform/internal/modules/community/dto"
	community "hmcc.com/communityplatform/internal/modules/community/service"
	eventDto "hmcc.com/communityplatform/internal/modules/event/dto"
	event "hmcc.com/communityplatform/internal/modules/event/service"
	mentorDto "hmcc.com/communityplatform/internal/modules/mentor/dto"
	mentor "hmcc.com/communityplatform/internal/modules/mentor/service"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

const suggestionLimit = 5

// DiscoverResponse is the home-screen digest: communities worth joining,
// what's coming up and who to talk to.
type DiscoverResponse struct {
	Communities []communityDto.CommunityResponse `json:"communities"`
	Events      []eventDto.EventResponse         `json:"events"`
	Mentors     []mentorDto.MentorResponse       `json:"mentors"`
}

type DiscoverService interface {
	Discover(ctx context.Context, userID uuid.UUID) (*DiscoverResponse, error)
}

type discoverService struct {
	communities community.CommunityService
	events      event.EventService
	mentors     mentor.MentorService
}

func NewDiscoverService(communities community.CommunityService, events event.EventService, mentors mentor.MentorService) DiscoverService {
	return &discoverService{
		communities: communities,
		events:      events,
		mentors:     mentors,
	}
}

func (s *discoverService) Discover(ctx context.Context, userID uuid.UUID) (*DiscoverResponse, error) {
	resp := &DiscoverResponse{
		Communities: []communityDto.CommunityResponse{},
		Events:      []eventDto.EventResponse{},
		Mentors:     []mentorDto.MentorResponse{},
	}

	communities, _, err := s.communities.ListCommunities(ctx, userID, communityDto.ListCommunitiesFilter{
		PageQuery: commonDto.PageQuery{Page: 1, Limit: suggestionLimit * 2},
	})
	if err != nil {
		return nil, err
	}
	for _, c := range communities {
		if c.IsMember {
			continue
		}
		resp.Communities = append(resp.Communities, c)
		if len(resp.Communities) == suggestionLimit {
			break
		}
	}

	events, _, err := s.events.ListEvents(ctx, userID, eventDto.ListEventsFilter{
		PageQuery: commonDto.PageQuery{Page: 1, Limit: suggestionLimit},
		Upcoming:  true,
	})
	if err != nil {
		return nil, err
	}
	resp.Events = events

	mentors, _, err := s.mentors.ListMentors(ctx, mentorDto.ListMentorsFilter{
		PageQuery: commonDto.PageQuery{Page: 1, Limit: suggestionLimit},
	})
	if err != nil {
		return nil, err
	}
	resp.Mentors = mentors

	return resp, nil
}
