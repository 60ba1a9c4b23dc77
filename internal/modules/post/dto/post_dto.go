package dto

import (
	"time"

	"github.com/google/uuid"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type CreatePostRequest struct {
	Content     string     `json:"content" binding:"required,min=1,max=5000"`
	CommunityID *uuid.UUID `json:"community_id"`
	ImageURL    *string    `json:"image_url" binding:"omitempty,url"`
}

type UpdatePostRequest struct {
	Content *string `json:"content" binding:"omitempty,min=1,max=5000"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

type ListPostsFilter struct {
	commonDto.PageQuery
	CommunityID string `form:"community_id" binding:"omitempty,uuid"`
	AuthorID    string `form:"author_id" binding:"omitempty,uuid"`
}

type PostResponse struct {
	ID           uuid.UUID             `json:"id"`
	CommunityID  *uuid.UUID            `json:"community_id,omitempty"`
	Content      string                `json:"content"`
	ImageURL     *string               `json:"image_url,omitempty"`
	LikeCount    int                   `json:"like_count"`
	CommentCount int                   `json:"comment_count"`
	IsLiked      bool                  `json:"is_liked"`
	Author       commonDto.UserSummary `json:"author"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type CommentResponse struct {
	ID        uuid.UUID             `json:"id"`
	PostID    uuid.UUID             `json:"post_id"`
	Content   string                `json:"content"`
	Author    commonDto.UserSummary `json:"author"`
	CreatedAt time.Time             `json:"created_at"`
}
