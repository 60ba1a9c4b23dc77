package dto

import (
	"time"

	"github.com/google/uuid"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type CreateAnnouncementRequest struct {
	Title    string `json:"title" binding:"required,min=3,max=150"`
	Body     string `json:"body" binding:"required,max=10000"`
	Audience string `json:"audience" binding:"omitempty,oneof=ALL FELLOWS MENTORS"`
}

type UpdateAnnouncementRequest struct {
	Title    *string `json:"title" binding:"omitempty,min=3,max=150"`
	Body     *string `json:"body" binding:"omitempty,max=10000"`
	Audience *string `json:"audience" binding:"omitempty,oneof=ALL FELLOWS MENTORS"`
	Status   *string `json:"status" binding:"omitempty,oneof=ACTIVE ARCHIVED"`
}

type AnnouncementResponse struct {
	ID        uuid.UUID             `json:"id"`
	Title     string                `json:"title"`
	Body      string                `json:"body"`
	Audience  string                `json:"audience"`
	Status    string                `json:"status"`
	Author    commonDto.UserSummary `json:"author"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}
