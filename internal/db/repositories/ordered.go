package repositories

import (
	"context"
	"fmt"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

// Agendas and minutes carry a 1-based position that stays contiguous within
// their event. The helpers below keep that true on append, move and delete.
// Callers run them inside a transaction; the event row is locked first so
// two appends to the same event cannot read the same count.

func lockEvent(ctx context.Context, tx *gorm.DB, eventID uint) error {
	_, err := lockByID[gormModels.Event](ctx, tx, eventID, "event")
	return err
}

func nextPosition(ctx context.Context, tx *gorm.DB, model tabler, eventID uint) (int, error) {
	var n int64
	if err := tx.WithContext(ctx).Model(model).Where("event_id = ?", eventID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", model.TableName(), err)
	}
	return int(n) + 1, nil
}

// closeGap shifts every row after removed down by one.
func closeGap(ctx context.Context, tx *gorm.DB, model tabler, eventID uint, removed int) error {
	err := tx.WithContext(ctx).Model(model).
		Where("event_id = ? AND position > ?", eventID, removed).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return fmt.Errorf("failed to renumber %s: %w", model.TableName(), err)
	}
	return nil
}

// movePosition makes room at to for the row currently at from.
func movePosition(ctx context.Context, tx *gorm.DB, model tabler, eventID uint, from, to int) error {
	q := tx.WithContext(ctx).Model(model)
	var err error
	switch {
	case to < from:
		err = q.Where("event_id = ? AND position >= ? AND position < ?", eventID, to, from).
			UpdateColumn("position", gorm.Expr("position + 1")).Error
	case to > from:
		err = q.Where("event_id = ? AND position > ? AND position <= ?", eventID, from, to).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	}
	if err != nil {
		return fmt.Errorf("failed to reorder %s: %w", model.TableName(), err)
	}
	return nil
}

// reposition returns the position a row at from ends up in. moveTo of zero
// leaves it where it is; otherwise the row is moved within [1, count].
func reposition(ctx context.Context, tx *gorm.DB, model tabler, eventID uint, from, moveTo int) (int, error) {
	if moveTo == 0 || moveTo == from {
		return from, nil
	}
	last, err := nextPosition(ctx, tx, model, eventID)
	if err != nil {
		return 0, err
	}
	if moveTo < 1 || moveTo >= last {
		return 0, fmt.Errorf("position %d out of range: %w", moveTo, ErrOutOfRange)
	}
	if err := movePosition(ctx, tx, model, eventID, from, moveTo); err != nil {
		return 0, err
	}
	return moveTo, nil
}
