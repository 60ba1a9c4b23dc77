package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/pkg/apperror"
)

type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *entity.Announcement) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Announcement, error)
	// FindActiveForAudiences lists ACTIVE announcements whose audience is in
	// the given set, newest first.
	FindActiveForAudiences(ctx context.Context, audiences []string, limit, offset int) ([]entity.Announcement, int64, error)
	FindAll(ctx context.Context, limit, offset int) ([]entity.Announcement, int64, error)
	Update(ctx context.Context, announcement *entity.Announcement) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type announcementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) Create(ctx context.Context, announcement *entity.Announcement) error {
	return r.db.WithContext(ctx).Create(announcement).Error
}

func (r *announcementRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Announcement, error) {
	var announcement entity.Announcement
	if err := r.db.WithContext(ctx).
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, avatar_url")
		}).
		Where("id = ?", id).
		First(&announcement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &announcement, nil
}

func (r *announcementRepository) FindActiveForAudiences(ctx context.Context, audiences []string, limit, offset int) ([]entity.Announcement, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.Announcement{}).
		Where("status = ?", entity.AnnouncementStatusActive).
		Where("audience IN ?", audiences)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var announcements []entity.Announcement
	if err := query.
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, avatar_url")
		}).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&announcements).Error; err != nil {
		return nil, 0, err
	}
	return announcements, total, nil
}

func (r *announcementRepository) FindAll(ctx context.Context, limit, offset int) ([]entity.Announcement, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Announcement{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var announcements []entity.Announcement
	if err := query.
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, avatar_url")
		}).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&announcements).Error; err != nil {
		return nil, 0, err
	}
	return announcements, total, nil
}

func (r *announcementRepository) Update(ctx context.Context, announcement *entity.Announcement) error {
	return r.db.WithContext(ctx).Save(announcement).Error
}

func (r *announcementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Announcement{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
