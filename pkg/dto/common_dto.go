package dto

import "github.com/google/uuid"

// PageQuery is the common pagination query shape.
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Normalize applies the defaults used across list endpoints.
func (q *PageQuery) Normalize(defaultLimit int) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
}

// Offset converts page/limit into a SQL offset.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

// NewPaginationMeta derives the meta block from a total row count.
func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
	}
}

// UserSummary is the denormalized author/participant shape embedded in
// list responses.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url"`
}

type IDUri struct {
	ID string `uri:"id" binding:"required,uuid"`
}
