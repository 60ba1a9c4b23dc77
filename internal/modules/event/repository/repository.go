package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/pkg/apperror"
)

type EventFilter struct {
	CommunityID *uuid.UUID
	After       *time.Time
	Limit       int
	Offset      int
}

type EventRepository interface {
	Create(ctx context.Context, event *entity.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	FindAll(ctx context.Context, filter EventFilter) ([]entity.Event, int64, error)
	FindUpcoming(ctx context.Context, limit int) ([]entity.Event, error)
	Update(ctx context.Context, event *entity.Event) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Register adds the attendee, failing with ErrConflict once the event
	// capacity is reached. The count check and insert run in one transaction.
	Register(ctx context.Context, event *entity.Event, userID uuid.UUID) error
	Unregister(ctx context.Context, eventID, userID uuid.UUID) error
	FindAttendee(ctx context.Context, eventID, userID uuid.UUID) (*entity.EventAttendee, error)
	ListAttendees(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]entity.EventAttendee, int64, error)
	CountAttendees(ctx context.Context, eventID uuid.UUID) (int64, error)
	ListRegistrations(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	var event entity.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindAll(ctx context.Context, filter EventFilter) ([]entity.Event, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Event{})

	if filter.CommunityID != nil {
		query = query.Where("community_id = ?", *filter.CommunityID)
	}
	if filter.After != nil {
		query = query.Where("starts_at >= ?", *filter.After)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []entity.Event
	if err := query.
		Order("starts_at ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) FindUpcoming(ctx context.Context, limit int) ([]entity.Event, error) {
	var events []entity.Event
	err := r.db.WithContext(ctx).
		Where("starts_at >= ?", time.Now()).
		Order("starts_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&entity.EventAttendee{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Event{}).Error
	})
}

func (r *eventRepository) Register(ctx context.Context, event *entity.Event, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if event.Capacity > 0 {
			var count int64
			if err := tx.Model(&entity.EventAttendee{}).
				Where("event_id = ?", event.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(event.Capacity) {
				return apperror.New(0, "event is at capacity", apperror.ErrConflict)
			}
		}
		return tx.Create(&entity.EventAttendee{
			EventID: event.ID,
			UserID:  userID,
		}).Error
	})
}

func (r *eventRepository) Unregister(ctx context.Context, eventID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&entity.EventAttendee{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *eventRepository) FindAttendee(ctx context.Context, eventID, userID uuid.UUID) (*entity.EventAttendee, error) {
	var attendee entity.EventAttendee
	if err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&attendee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &attendee, nil
}

func (r *eventRepository) ListAttendees(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]entity.EventAttendee, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.EventAttendee{}).
		Where("event_id = ?", eventID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attendees []entity.EventAttendee
	if err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, avatar_url")
		}).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&attendees).Error; err != nil {
		return nil, 0, err
	}
	return attendees, total, nil
}

func (r *eventRepository) CountAttendees(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.EventAttendee{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (r *eventRepository) ListRegistrations(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.EventAttendee{}).
		Where("user_id = ?", userID).
		Pluck("event_id", &ids).Error
	return ids, err
}
