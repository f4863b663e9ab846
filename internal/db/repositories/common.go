package repositories

import (
	"context"
	"fmt"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tabler interface {
	TableName() string
}

// findByID loads one row by primary key with optional preloads.
func findByID[T any](ctx context.Context, db *gorm.DB, id uint, what string, preloads ...string) (*T, error) {
	var row T
	q := db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&row, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("load %s %d", what, id))
	}
	return &row, nil
}

// lockByID is findByID with SELECT ... FOR UPDATE. The sqlite dialector
// drops the locking clause; its single writer already serializes.
func lockByID[T any](ctx context.Context, tx *gorm.DB, id uint, what string) (*T, error) {
	var row T
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, id).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("lock %s %d", what, id))
	}
	return &row, nil
}

func exists(ctx context.Context, q *gorm.DB) (bool, error) {
	var n int64
	if err := q.WithContext(ctx).Limit(1).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return n > 0, nil
}

// deleteByID hard-deletes one row and reports ErrNotFound when nothing
// matched.
func deleteByID(ctx context.Context, db *gorm.DB, model tabler, id uint) error {
	lc := gormModels.LifecycleOf(model.TableName())
	if lc.Delete != gormModels.DeleteHard {
		return setActive(ctx, db, model, id, false)
	}

	res := db.WithContext(ctx).Delete(model, id)
	if res.Error != nil {
		return translate(res.Error, "delete "+model.TableName())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s %d: %w", model.TableName(), id, ErrNotFound)
	}
	return nil
}

// setActive implements block/unblock for tables whose lifecycle allows it.
func setActive(ctx context.Context, db *gorm.DB, model tabler, id uint, active bool) error {
	lc := gormModels.LifecycleOf(model.TableName())
	if !lc.Blockable && lc.Delete != gormModels.DeleteSoft {
		return fmt.Errorf("%s rows cannot be blocked", model.TableName())
	}

	res := db.WithContext(ctx).Model(model).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error, "update "+model.TableName())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s %d: %w", model.TableName(), id, ErrNotFound)
	}
	return nil
}

// insertIgnore inserts row unless a unique index already holds it and
// reports whether a new row was written.
func insertIgnore(ctx context.Context, db *gorm.DB, row interface{}) (bool, error) {
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, translate(res.Error, "insert")
	}
	return res.RowsAffected > 0, nil
}

// InsertIgnore is insertIgnore for packages that write link rows inside
// their own transactions.
func InsertIgnore(ctx context.Context, db *gorm.DB, row interface{}) (bool, error) {
	return insertIgnore(ctx, db, row)
}
