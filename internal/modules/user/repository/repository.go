package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"hmcc.com/communityplatform/internal/entity"
)

// RegistrationRecords carries the role-specific rows created together with
// the user inside one transaction.
type RegistrationRecords struct {
	Fellow         *entity.FellowProfile
	Mentor         *entity.MentorProfile
	Community      *entity.Community
	CommunityAdmin *entity.CommunityMember
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User, records RegistrationRecords) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindAll(ctx context.Context, role, status, search string, limit, offset int) ([]*entity.User, int64, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)

	SaveFellowProfile(ctx context.Context, profile *entity.FellowProfile) error
	SaveMentorProfile(ctx context.Context, profile *entity.MentorProfile) error

	UpsertPasswordReset(ctx context.Context, reset *entity.PasswordReset) error
	FindPasswordReset(ctx context.Context, userID uuid.UUID) (*entity.PasswordReset, error)
	DeletePasswordReset(ctx context.Context, userID uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User, records RegistrationRecords) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		if records.Fellow != nil {
			records.Fellow.UserID = user.ID
			if err := tx.Create(records.Fellow).Error; err != nil {
				return err
			}
		}

		if records.Mentor != nil {
			records.Mentor.UserID = user.ID
			if err := tx.Create(records.Mentor).Error; err != nil {
				return err
			}
		}

		if records.Community != nil {
			if err := tx.Create(records.Community).Error; err != nil {
				return err
			}
			if records.CommunityAdmin != nil {
				records.CommunityAdmin.UserID = user.ID
				records.CommunityAdmin.CommunityID = records.Community.ID
				if err := tx.Create(records.CommunityAdmin).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Fellow").
		Preload("Mentor").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Fellow").
		Preload("Mentor").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindAll(ctx context.Context, role, status, search string, limit, offset int) ([]*entity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.User{})

	if role != "" {
		query = query.Where("role = ?", role)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		query = query.Where("name ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*entity.User
	if err := query.
		Preload("Fellow").
		Preload("Mentor").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.User{}, "id = ?", id).Error
}

func (r *userRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.User{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("role = ?", role).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) SaveFellowProfile(ctx context.Context, profile *entity.FellowProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *userRepository) SaveMentorProfile(ctx context.Context, profile *entity.MentorProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// UpsertPasswordReset replaces any outstanding reset token for the user.
func (r *userRepository) UpsertPasswordReset(ctx context.Context, reset *entity.PasswordReset) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "created_at"}),
		}).
		Create(reset).Error
}

func (r *userRepository) FindPasswordReset(ctx context.Context, userID uuid.UUID) (*entity.PasswordReset, error) {
	var reset entity.PasswordReset
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&reset).Error; err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *userRepository) DeletePasswordReset(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.PasswordReset{}, "user_id = ?", userID).Error
}
