package repositories

import (
	"context"
	"fmt"
	"strings"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type MinuteRepository struct {
	db *gorm.DB
}

func NewMinuteRepository(db *gorm.DB) *MinuteRepository {
	return &MinuteRepository{db: db}
}

func (r *MinuteRepository) GetByID(ctx context.Context, id uint) (*gormModels.EventMinute, error) {
	return findByID[gormModels.EventMinute](ctx, r.db, id, "event minute", "Author")
}

// ContentTaken compares case-insensitively within one event.
func (r *MinuteRepository) ContentTaken(ctx context.Context, eventID uint, content string, excludeID uint) (bool, error) {
	return exists(ctx, r.db.Model(&gormModels.EventMinute{}).
		Where("event_id = ? AND LOWER(content) = ? AND id <> ?", eventID, strings.ToLower(strings.TrimSpace(content)), excludeID))
}

// Append checks for a duplicate and stores the minute last, both under the
// event lock.
func (r *MinuteRepository) Append(ctx context.Context, minute *gormModels.EventMinute) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(ctx, tx, minute.EventID); err != nil {
			return err
		}
		taken, err := NewMinuteRepository(tx).ContentTaken(ctx, minute.EventID, minute.Content, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("minute for event %d: %w", minute.EventID, ErrDuplicate)
		}
		pos, err := nextPosition(ctx, tx, &gormModels.EventMinute{}, minute.EventID)
		if err != nil {
			return err
		}
		minute.Index = pos
		return translate(tx.Create(minute).Error, "create event minute")
	})
}

// Update saves the row. A moveTo of zero keeps the stored position.
func (r *MinuteRepository) Update(ctx context.Context, minute *gormModels.EventMinute, moveTo int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(ctx, tx, minute.EventID); err != nil {
			return err
		}
		taken, err := NewMinuteRepository(tx).ContentTaken(ctx, minute.EventID, minute.Content, minute.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("minute %d content: %w", minute.ID, ErrDuplicate)
		}
		current, err := findByID[gormModels.EventMinute](ctx, tx, minute.ID, "event minute")
		if err != nil {
			return err
		}
		minute.Index, err = reposition(ctx, tx, &gormModels.EventMinute{}, minute.EventID, current.Index, moveTo)
		if err != nil {
			return fmt.Errorf("minute %d: %w", minute.ID, err)
		}
		return translate(tx.Omit("Event", "Author").Save(minute).Error, "save event minute")
	})
}

func (r *MinuteRepository) Remove(ctx context.Context, id uint) (*gormModels.EventMinute, error) {
	var removed *gormModels.EventMinute
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		minute, err := findByID[gormModels.EventMinute](ctx, tx, id, "event minute")
		if err != nil {
			return err
		}
		if err := lockEvent(ctx, tx, minute.EventID); err != nil {
			return err
		}
		if err := deleteByID(ctx, tx, &gormModels.EventMinute{}, id); err != nil {
			return err
		}
		removed = minute
		return closeGap(ctx, tx, &gormModels.EventMinute{}, minute.EventID, minute.Index)
	})
	return removed, err
}

func (r *MinuteRepository) ListForEvent(ctx context.Context, eventID uint, req PageRequest) (*Page[gormModels.EventMinute], error) {
	q := r.db.Model(&gormModels.EventMinute{}).Where("event_id = ?", eventID)
	return paginate[gormModels.EventMinute](ctx, q, req, "position", "Author")
}
