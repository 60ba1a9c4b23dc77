package dto

import (
	"hmcc.com/communityplatform/internal/entity"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=FELLOW MENTOR COMMUNITY_ADMIN USER"`

	// Fellow fields
	Team       string   `json:"team"`
	Department string   `json:"department"`
	Interests  []string `json:"interests"`

	// Mentor fields
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	Expertise  []string `json:"expertise"`
	Experience string   `json:"experience"`

	// Community admin fields
	CommunityName string `json:"community_name"`
	Category      string `json:"category"`

	Bio string `json:"bio"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type UpdateProfileRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=2,max=100"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`

	// Fellow fields
	Team       *string   `json:"team"`
	Department *string   `json:"department"`
	Interests  *[]string `json:"interests"`

	// Mentor fields
	Title      *string   `json:"title"`
	Company    *string   `json:"company"`
	Expertise  *[]string `json:"expertise"`
	Experience *string   `json:"experience"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	User         *entity.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
}

type ListUsersFilter struct {
	Role   string `form:"role" binding:"omitempty,oneof=SUPER_ADMIN CONTENT_ADMIN USER_ADMIN ANALYTICS_ADMIN MENTOR FELLOW COMMUNITY_ADMIN USER"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING ACTIVE INACTIVE SUSPENDED"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
