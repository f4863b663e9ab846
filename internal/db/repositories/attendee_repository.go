package repositories

import (
	"context"
	"fmt"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type AttendeeRepository struct {
	db *gorm.DB
}

func NewAttendeeRepository(db *gorm.DB) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

func (r *AttendeeRepository) GetByID(ctx context.Context, id uint) (*gormModels.EventAttendee, error) {
	return findByID[gormModels.EventAttendee](ctx, r.db, id, "event attendee", "Attendee")
}

// Find returns the enrolment of userID in eventID.
func (r *AttendeeRepository) Find(ctx context.Context, eventID, userID uint) (*gormModels.EventAttendee, error) {
	var row gormModels.EventAttendee
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND attendee_id = ?", eventID, userID).
		First(&row).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("load attendee %d of event %d", userID, eventID))
	}
	return &row, nil
}

// Insert adds one enrolment unless the pair already exists.
func (r *AttendeeRepository) Insert(ctx context.Context, row *gormModels.EventAttendee) (bool, error) {
	return insertIgnore(ctx, r.db, row)
}

// DeleteByUser removes userID from eventID and reports whether a row went.
func (r *AttendeeRepository) DeleteByUser(ctx context.Context, eventID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("event_id = ? AND attendee_id = ?", eventID, userID).
		Delete(&gormModels.EventAttendee{})
	if res.Error != nil {
		return false, translate(res.Error, "remove event attendee")
	}
	return res.RowsAffected > 0, nil
}

// SetFlag updates one of the boolean columns on an enrolment row.
func (r *AttendeeRepository) SetFlag(ctx context.Context, id uint, column string, value bool) error {
	res := r.db.WithContext(ctx).Model(&gormModels.EventAttendee{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error, "update event attendee")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update event attendee %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *AttendeeRepository) ListForEvent(ctx context.Context, eventID uint, req PageRequest) (*Page[gormModels.EventAttendee], error) {
	q := r.db.Model(&gormModels.EventAttendee{}).Where("event_id = ?", eventID)
	return paginate[gormModels.EventAttendee](ctx, q, req, "id", "Attendee")
}

// AllForEvent returns every enrolment with the user preloaded.
func (r *AttendeeRepository) AllForEvent(ctx context.Context, eventID uint) ([]gormModels.EventAttendee, error) {
	var rows []gormModels.EventAttendee
	err := r.db.WithContext(ctx).Preload("Attendee").Where("event_id = ?", eventID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list event attendees: %w", err)
	}
	return rows, nil
}

func (r *AttendeeRepository) AttendeeIDs(ctx context.Context, eventID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&gormModels.EventAttendee{}).
		Where("event_id = ?", eventID).
		Order("attendee_id").
		Pluck("attendee_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendee ids: %w", err)
	}
	return ids, nil
}
