package dto

import (
	"github.com/google/uuid"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type ListMentorsFilter struct {
	commonDto.PageQuery
	Expertise string `form:"expertise"`
	Search    string `form:"search"`
}

type MentorResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	Expertise  []string  `json:"expertise"`
	Bio        string    `json:"bio"`
	Experience string    `json:"experience"`
}
