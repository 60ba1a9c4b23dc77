package mentor

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/modules/mentor/dto"
	mentorRepo "hmcc.com/communityplatform/internal/modules/mentor/repository"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type MentorService interface {
	ListMentors(ctx context.Context, filter dto.ListMentorsFilter) ([]dto.MentorResponse, commonDto.PaginationMeta, error)
	GetMentor(ctx context.Context, id uuid.UUID) (*dto.MentorResponse, error)
}

type mentorService struct {
	repo mentorRepo.MentorRepository
}

func NewMentorService(repo mentorRepo.MentorRepository) MentorService {
	return &mentorService{repo: repo}
}

func (s *mentorService) ListMentors(ctx context.Context, filter dto.ListMentorsFilter) ([]dto.MentorResponse, commonDto.PaginationMeta, error) {
	filter.Normalize(20)

	mentors, total, err := s.repo.FindMentors(ctx, mentorRepo.MentorFilter{
		Expertise: filter.Expertise,
		Search:    filter.Search,
		Limit:     filter.Limit,
		Offset:    filter.Offset(),
	})
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	responses := make([]dto.MentorResponse, 0, len(mentors))
	for i := range mentors {
		responses = append(responses, toResponse(&mentors[i]))
	}
	return responses, commonDto.NewPaginationMeta(filter.Page, filter.Limit, total), nil
}

func (s *mentorService) GetMentor(ctx context.Context, id uuid.UUID) (*dto.MentorResponse, error) {
	mentor, err := s.repo.FindMentorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(mentor)
	return &resp, nil
}

func toResponse(user *entity.User) dto.MentorResponse {
	resp := dto.MentorResponse{
		ID:        user.ID,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Expertise: []string{},
	}
	if user.Mentor != nil {
		resp.Title = user.Mentor.Title
		resp.Company = user.Mentor.Company
		resp.Bio = user.Mentor.Bio
		resp.Experience = user.Mentor.Experience
		if len(user.Mentor.Expertise) > 0 {
			var expertise []string
			if err := json.Unmarshal(user.Mentor.Expertise, &expertise); err == nil {
				resp.Expertise = expertise
			}
		}
	}
	return resp
}
