package dto

import (
	"time"

	"github.com/google/uuid"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type CreateCommunityRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=100"`
	Description string `json:"description" binding:"required,max=2000"`
	Category    string `json:"category" binding:"omitempty,max=50"`
}

type UpdateCommunityRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Category    *string `json:"category" binding:"omitempty,max=50"`
}

type ListCommunitiesFilter struct {
	commonDto.PageQuery
	Category string `form:"category"`
	Search   string `form:"search"`
}

type CommunityResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Status      string    `json:"status"`
	MemberCount int64     `json:"member_count"`
	IsMember    bool      `json:"is_member"`
	CreatedAt   time.Time `json:"created_at"`
}

type MemberResponse struct {
	ID       uuid.UUID             `json:"id"`
	Role     string                `json:"role"`
	JoinedAt time.Time             `json:"joined_at"`
	User     commonDto.UserSummary `json:"user"`
}
