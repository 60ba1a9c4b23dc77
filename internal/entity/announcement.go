package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AnnouncementStatusActive   = "ACTIVE"
	AnnouncementStatusArchived = "ARCHIVED"
)

const (
	AudienceAll     = "ALL"
	AudienceFellows = "FELLOWS"
	AudienceMentors = "MENTORS"
)

type Announcement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Title     string    `gorm:"size:150;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Audience  string    `gorm:"size:20;not null;default:ALL" json:"audience"`
	Status    string    `gorm:"size:20;not null;default:ACTIVE" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
