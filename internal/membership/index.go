// Package membership answers set-valued questions about who belongs where:
// departments and committees of a user, members of a department or
// committee, and the events a user authored or attends.
//
// Every result is deduplicated and sorted ascending. The index has no side
// effects and can be bound to a running transaction with New(tx).
package membership

import (
	"context"
	"fmt"
	"sort"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type Index struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Index {
	return &Index{db: db}
}

func (ix *Index) DepartmentsOf(ctx context.Context, userID uint) ([]uint, error) {
	return ix.pluck(ctx, &gormModels.UserDepartment{}, "department_id", "user_id = ?", userID)
}

func (ix *Index) CommitteesOf(ctx context.Context, userID uint) ([]uint, error) {
	return ix.pluck(ctx, &gormModels.UserCommittee{}, "committee_id", "user_id = ?", userID)
}

func (ix *Index) DepartmentMembers(ctx context.Context, departmentID uint) ([]uint, error) {
	return ix.pluck(ctx, &gormModels.UserDepartment{}, "user_id", "department_id = ?", departmentID)
}

func (ix *Index) CommitteeMembers(ctx context.Context, committeeID uint) ([]uint, error) {
	return ix.pluck(ctx, &gormModels.UserCommittee{}, "user_id", "committee_id = ?", committeeID)
}

// MembersOf is the union of the members of all listed departments and
// committees.
func (ix *Index) MembersOf(ctx context.Context, departmentIDs, committeeIDs []uint) ([]uint, error) {
	var all []uint
	if len(departmentIDs) > 0 {
		ids, err := ix.pluck(ctx, &gormModels.UserDepartment{}, "user_id", "department_id IN ?", departmentIDs)
		if err != nil {
			return nil, err
		}
		all = append(all, ids...)
	}
	if len(committeeIDs) > 0 {
		ids, err := ix.pluck(ctx, &gormModels.UserCommittee{}, "user_id", "committee_id IN ?", committeeIDs)
		if err != nil {
			return nil, err
		}
		all = append(all, ids...)
	}
	return Normalize(all), nil
}

func (ix *Index) AuthoredEvents(ctx context.Context, userID uint) ([]uint, error) {
	return ix.pluck(ctx, &gormModels.Event{}, "id", "author_id = ?", userID)
}

func (ix *Index) AttendedEvents(ctx context.Context, userID uint) ([]uint, error) {
	return ix.pluck(ctx, &gormModels.EventAttendee{}, "event_id", "attendee_id = ?", userID)
}

// EventsOf returns the events userID authored or is enrolled in.
func (ix *Index) EventsOf(ctx context.Context, userID uint) ([]uint, error) {
	authored, err := ix.AuthoredEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	attended, err := ix.AttendedEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Normalize(append(authored, attended...)), nil
}

func (ix *Index) pluck(ctx context.Context, model interface{}, column, where string, arg interface{}) ([]uint, error) {
	var ids []uint
	err := ix.db.WithContext(ctx).Model(model).Where(where, arg).Pluck(column, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", column, err)
	}
	return Normalize(ids), nil
}

// Normalize sorts ids ascending and drops repeats. The result is never nil.
func Normalize(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	if len(ids) == 0 {
		return out
	}
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, id := range sorted {
		if i == 0 || id != sorted[i-1] {
			out = append(out, id)
		}
	}
	return out
}
