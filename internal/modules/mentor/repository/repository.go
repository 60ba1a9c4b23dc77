package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/pkg/apperror"
)

type MentorFilter struct {
	Expertise string
	Search    string
	Limit     int
	Offset    int
}

type MentorRepository interface {
	FindMentors(ctx context.Context, filter MentorFilter) ([]entity.User, int64, error)
	FindMentorByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type mentorRepository struct {
	db *gorm.DB
}

func NewMentorRepository(db *gorm.DB) MentorRepository {
	return &mentorRepository{db: db}
}

func (r *mentorRepository) FindMentors(ctx context.Context, filter MentorFilter) ([]entity.User, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Joins("JOIN mentor_profiles ON mentor_profiles.user_id = users.id").
		Where("users.role = ? AND users.status = ?", entity.RoleMentor, entity.StatusActive)

	if filter.Expertise != "" {
		// Expertise is a jsonb array of strings; match against its text form.
		query = query.Where("mentor_profiles.expertise::text ILIKE ?", "%"+filter.Expertise+"%")
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"users.name ILIKE ? OR mentor_profiles.company ILIKE ? OR mentor_profiles.title ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var mentors []entity.User
	if err := query.
		Preload("Mentor").
		Order("users.name ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&mentors).Error; err != nil {
		return nil, 0, err
	}
	return mentors, total, nil
}

func (r *mentorRepository) FindMentorByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var mentor entity.User
	if err := r.db.WithContext(ctx).
		Preload("Mentor").
		Where("id = ? AND role = ? AND status = ?", id, entity.RoleMentor, entity.StatusActive).
		First(&mentor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &mentor, nil
}
