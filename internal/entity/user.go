package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleSuperAdmin     = "SUPER_ADMIN"
	RoleContentAdmin   = "CONTENT_ADMIN"
	RoleUserAdmin      = "USER_ADMIN"
	RoleAnalyticsAdmin = "ANALYTICS_ADMIN"
	RoleMentor         = "MENTOR"
	RoleFellow         = "FELLOW"
	RoleCommunityAdmin = "COMMUNITY_ADMIN"
	RoleUser           = "USER"
)

const (
	StatusPending   = "PENDING"
	StatusActive    = "ACTIVE"
	StatusInactive  = "INACTIVE"
	StatusSuspended = "SUSPENDED"
)

// IsAdminRole reports whether the role belongs to the platform staff.
func IsAdminRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleContentAdmin, RoleUserAdmin, RoleAnalyticsAdmin:
		return true
	}
	return false
}

// IsValidRole reports whether the role is one a user can register with.
func IsValidRole(role string) bool {
	switch role {
	case RoleMentor, RoleFellow, RoleCommunityAdmin, RoleUser:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:30;not null;default:FELLOW" json:"role"`
	Status       string     `gorm:"size:20;not null;default:PENDING" json:"status"`
	AvatarURL    *string    `gorm:"type:text" json:"avatar_url,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Fellow *FellowProfile `gorm:"constraint:OnDelete:CASCADE" json:"fellow,omitempty"`
	Mentor *MentorProfile `gorm:"constraint:OnDelete:CASCADE" json:"mentor,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type FellowProfile struct {
	UserID     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Team       *string        `gorm:"size:100" json:"team,omitempty"`
	Department *string        `gorm:"size:100" json:"department,omitempty"`
	Bio        *string        `gorm:"type:text" json:"bio,omitempty"`
	Interests  datatypes.JSON `gorm:"type:jsonb" json:"interests,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

type MentorProfile struct {
	UserID     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Title      string         `gorm:"size:100;not null" json:"title"`
	Company    string         `gorm:"size:100" json:"company"`
	Expertise  datatypes.JSON `gorm:"type:jsonb" json:"expertise,omitempty"`
	Bio        string         `gorm:"type:text" json:"bio"`
	Experience string         `gorm:"type:text" json:"experience"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// PasswordReset holds the single outstanding reset token per user; issuing
// a new one overwrites the previous value.
type PasswordReset struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Token     string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
