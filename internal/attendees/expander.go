// Package attendees materializes event attendee rows from department and
// committee membership and manages explicit enrolment and delegations.
//
// Every write goes through ON CONFLICT DO NOTHING against the unique
// (event_id, attendee_id) index, so concurrent or repeated calls converge on
// the same set without duplicates.
package attendees

import (
	"context"
	"errors"
	"fmt"

	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/membership"
	"meetings/boardroom/internal/metrics"
	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound      = errors.New("event does not exist")
	ErrDepartmentNotFound = errors.New("department does not exist")
	ErrCommitteeNotFound  = errors.New("committee does not exist")
	ErrUserNotFound       = errors.New("user does not exist")
	ErrAttendeeNotFound   = errors.New("event attendee does not exist")
	ErrAlreadyAttending   = errors.New("event attendee already exists")
)

// Delegation names one of the boolean columns on an attendee row.
type Delegation string

const (
	DelegationUpload        Delegation = "can_upload"
	DelegationManageAgendas Delegation = "manage_agendas"
	DelegationManageMinutes Delegation = "manage_minutes"
	DelegationAttending     Delegation = "is_attending"
)

func (d Delegation) Valid() bool {
	switch d {
	case DelegationUpload, DelegationManageAgendas, DelegationManageMinutes, DelegationAttending:
		return true
	}
	return false
}

// Result reports what an expansion changed. Re-running it yields empty
// slices.
type Result struct {
	LinkedDepartments []uint
	LinkedCommittees  []uint
	Added             []gormModels.EventAttendee
}

type Expander struct {
	db      *gorm.DB
	metrics *metrics.MetricsRegistry
}

// NewExpander binds the engine to db, which may be a running transaction.
// m may be nil.
func NewExpander(db *gorm.DB, m *metrics.MetricsRegistry) *Expander {
	return &Expander{db: db, metrics: m}
}

// WithTx returns an expander that writes through tx.
func (x *Expander) WithTx(tx *gorm.DB) *Expander {
	return &Expander{db: tx, metrics: x.metrics}
}

func (x *Expander) enrolled(n int) {
	if x.metrics != nil && n > 0 {
		x.metrics.AttendeesEnrolledTotal.Add(float64(n))
	}
}

// Expand links the event to the departments and committees and enrolls
// every member that is not yet an attendee.
func (x *Expander) Expand(ctx context.Context, eventID uint, departmentIDs, committeeIDs []uint) (*Result, error) {
	departmentIDs = membership.Normalize(departmentIDs)
	committeeIDs = membership.Normalize(committeeIDs)
	res := &Result{}

	err := x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireEvent(ctx, tx, eventID); err != nil {
			return err
		}
		if err := requireAll(ctx, tx, &gormModels.Department{}, departmentIDs, ErrDepartmentNotFound); err != nil {
			return err
		}
		if err := requireAll(ctx, tx, &gormModels.Committee{}, committeeIDs, ErrCommitteeNotFound); err != nil {
			return err
		}

		for _, id := range departmentIDs {
			created, err := insertIgnore(ctx, tx, &gormModels.EventDepartment{EventID: eventID, DepartmentID: id})
			if err != nil {
				return err
			}
			if created {
				res.LinkedDepartments = append(res.LinkedDepartments, id)
			}
		}
		for _, id := range committeeIDs {
			created, err := insertIgnore(ctx, tx, &gormModels.EventCommittee{EventID: eventID, CommitteeID: id})
			if err != nil {
				return err
			}
			if created {
				res.LinkedCommittees = append(res.LinkedCommittees, id)
			}
		}

		members, err := membership.New(tx).MembersOf(ctx, departmentIDs, committeeIDs)
		if err != nil {
			return err
		}
		res.Added, err = enroll(ctx, tx, eventID, members)
		return err
	})
	if err != nil {
		return nil, err
	}

	x.enrolled(len(res.Added))
	logging.Debug("Expanded event attendees",
		"event_id", eventID,
		"departments", departmentIDs,
		"committees", committeeIDs,
		"added", len(res.Added))
	return res, nil
}

// BulkAdd enrolls the given users and returns only the rows it created.
func (x *Expander) BulkAdd(ctx context.Context, eventID uint, userIDs []uint) ([]gormModels.EventAttendee, error) {
	userIDs = membership.Normalize(userIDs)

	var added []gormModels.EventAttendee
	err := x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireEvent(ctx, tx, eventID); err != nil {
			return err
		}
		if err := requireAll(ctx, tx, &gormModels.User{}, userIDs, ErrUserNotFound); err != nil {
			return err
		}
		var err error
		added, err = enroll(ctx, tx, eventID, userIDs)
		return err
	})
	if err != nil {
		return nil, err
	}

	x.enrolled(len(added))
	return added, nil
}

// BulkRemove drops each user from the event. Users that are not attendees
// are skipped.
func (x *Expander) BulkRemove(ctx context.Context, eventID uint, userIDs []uint) (int, error) {
	userIDs = membership.Normalize(userIDs)
	removed := 0

	err := x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repositories.NewAttendeeRepository(tx)
		for _, id := range userIDs {
			ok, err := repo.DeleteByUser(ctx, eventID, id)
			if err != nil {
				return err
			}
			if ok {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Add enrolls one user. Unlike BulkAdd an existing enrolment is reported.
func (x *Expander) Add(ctx context.Context, eventID, userID uint) (*gormModels.EventAttendee, error) {
	added, err := x.BulkAdd(ctx, eventID, []uint{userID})
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return nil, ErrAlreadyAttending
	}
	return &added[0], nil
}

// Remove drops one user and reports ErrAttendeeNotFound if absent.
func (x *Expander) Remove(ctx context.Context, eventID, userID uint) error {
	ok, err := repositories.NewAttendeeRepository(x.db).DeleteByUser(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAttendeeNotFound
	}
	return nil
}

// SetDelegation toggles one flag on the attendee row attendeeID.
func (x *Expander) SetDelegation(ctx context.Context, attendeeID uint, d Delegation, value bool) (*gormModels.EventAttendee, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("unknown delegation %q", d)
	}

	repo := repositories.NewAttendeeRepository(x.db)
	if err := repo.SetFlag(ctx, attendeeID, string(d), value); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAttendeeNotFound
		}
		return nil, err
	}
	return repo.GetByID(ctx, attendeeID)
}

// Candidates pages through members of the departments who are not yet
// attendees of the event.
func (x *Expander) Candidates(ctx context.Context, eventID uint, departmentIDs []uint, req repositories.PageRequest) (*repositories.Page[gormModels.User], error) {
	enrolled := x.db.Model(&gormModels.EventAttendee{}).Select("attendee_id").Where("event_id = ?", eventID)
	q := x.db.Model(&gormModels.User{}).
		Where("is_active = ?", true).
		Where("id NOT IN (?)", enrolled)
	if len(departmentIDs) > 0 {
		members := x.db.Model(&gormModels.UserDepartment{}).Select("user_id").Where("department_id IN ?", departmentIDs)
		q = q.Where("id IN (?)", members)
	}
	return repositories.ListUsers(ctx, q, req)
}

func enroll(ctx context.Context, tx *gorm.DB, eventID uint, userIDs []uint) ([]gormModels.EventAttendee, error) {
	added := []gormModels.EventAttendee{}
	for _, id := range userIDs {
		row := gormModels.EventAttendee{EventID: eventID, AttendeeID: id}
		created, err := insertIgnore(ctx, tx, &row)
		if err != nil {
			return nil, err
		}
		if created {
			added = append(added, row)
		}
	}
	return added, nil
}

func insertIgnore(ctx context.Context, tx *gorm.DB, row interface{}) (bool, error) {
	created, err := repositories.InsertIgnore(ctx, tx, row)
	if err != nil {
		return false, fmt.Errorf("failed to enroll: %w", err)
	}
	return created, nil
}

func requireEvent(ctx context.Context, tx *gorm.DB, eventID uint) error {
	ok, err := repositories.NewEventRepository(tx).Exists(ctx, eventID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEventNotFound
	}
	return nil
}

// requireAll fails with missing unless every id has a row in model's table.
func requireAll(ctx context.Context, tx *gorm.DB, model interface{}, ids []uint, missing error) error {
	if len(ids) == 0 {
		return nil
	}
	var n int64
	if err := tx.WithContext(ctx).Model(model).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check ids: %w", err)
	}
	if int(n) != len(ids) {
		return missing
	}
	return nil
}
