package dto

import (
	"time"

	"github.com/google/uuid"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required,min=3,max=150"`
	Description string     `json:"description" binding:"required,max=5000"`
	Location    string     `json:"location" binding:"omitempty,max=200"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    int        `json:"capacity" binding:"omitempty,min=0"`
	CommunityID *uuid.UUID `json:"community_id"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=150"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	Location    *string    `json:"location" binding:"omitempty,max=200"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity" binding:"omitempty,min=0"`
}

type ListEventsFilter struct {
	commonDto.PageQuery
	CommunityID string `form:"community_id" binding:"omitempty,uuid"`
	// Upcoming limits the listing to events that have not started yet.
	Upcoming bool `form:"upcoming"`
}

type EventResponse struct {
	ID            uuid.UUID  `json:"id"`
	CommunityID   *uuid.UUID `json:"community_id,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	Capacity      int        `json:"capacity"`
	ImageURL      *string    `json:"image_url,omitempty"`
	AttendeeCount int64      `json:"attendee_count"`
	IsRegistered  bool       `json:"is_registered"`
	CreatedAt     time.Time  `json:"created_at"`
}

type AttendeeResponse struct {
	ID           uuid.UUID             `json:"id"`
	RegisteredAt time.Time             `json:"registered_at"`
	User         commonDto.UserSummary `json:"user"`
}
