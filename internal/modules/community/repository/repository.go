package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/pkg/apperror"
)

type CommunityFilter struct {
	Status   string
	Category string
	Search   string
	Limit    int
	Offset   int
}

type CommunityRepository interface {
	Create(ctx context.Context, community *entity.Community, creatorID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Community, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Community, error)
	FindAll(ctx context.Context, filter CommunityFilter) ([]entity.Community, int64, error)
	Update(ctx context.Context, community *entity.Community) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, member *entity.CommunityMember) error
	RemoveMember(ctx context.Context, communityID, userID uuid.UUID) error
	FindMember(ctx context.Context, communityID, userID uuid.UUID) (*entity.CommunityMember, error)
	ListMembers(ctx context.Context, communityID uuid.UUID, limit, offset int) ([]entity.CommunityMember, int64, error)
	CountMembers(ctx context.Context, communityID uuid.UUID) (int64, error)
	ListMemberships(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type communityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

// Create inserts the community together with its founding admin membership.
func (r *communityRepository) Create(ctx context.Context, community *entity.Community, creatorID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		member := &entity.CommunityMember{
			CommunityID: community.ID,
			UserID:      creatorID,
			Role:        entity.CommunityMemberRoleAdmin,
		}
		return tx.Create(member).Error
	})
}

func (r *communityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Community, error) {
	var community entity.Community
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&community).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) FindBySlug(ctx context.Context, slug string) (*entity.Community, error) {
	var community entity.Community
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&community).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) FindAll(ctx context.Context, filter CommunityFilter) ([]entity.Community, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Community{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var communities []entity.Community
	if err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&communities).Error; err != nil {
		return nil, 0, err
	}
	return communities, total, nil
}

func (r *communityRepository) Update(ctx context.Context, community *entity.Community) error {
	return r.db.WithContext(ctx).Save(community).Error
}

func (r *communityRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Community{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *communityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&entity.CommunityMember{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Community{}).Error
	})
}

func (r *communityRepository) AddMember(ctx context.Context, member *entity.CommunityMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *communityRepository) RemoveMember(ctx context.Context, communityID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&entity.CommunityMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *communityRepository) FindMember(ctx context.Context, communityID, userID uuid.UUID) (*entity.CommunityMember, error) {
	var member entity.CommunityMember
	if err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *communityRepository) ListMembers(ctx context.Context, communityID uuid.UUID, limit, offset int) ([]entity.CommunityMember, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.CommunityMember{}).
		Where("community_id = ?", communityID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []entity.CommunityMember
	if err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, avatar_url")
		}).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *communityRepository) CountMembers(ctx context.Context, communityID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.CommunityMember{}).
		Where("community_id = ?", communityID).
		Count(&count).Error
	return count, err
}

// ListMemberships returns the ids of every community the user belongs to.
func (r *communityRepository) ListMemberships(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.CommunityMember{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	return ids, err
}
