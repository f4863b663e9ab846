package services

import (
	"context"

	"meetings/boardroom/internal/attendees"
	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/metrics"
	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

// AttendeeService exposes enrolment over the expansion engine. Add and
// remove take user ids; delegation toggles take attendee row ids.
type AttendeeService struct {
	repo     *repositories.AttendeeRepository
	events   *repositories.EventRepository
	expander *attendees.Expander
}

func NewAttendeeService(db *gorm.DB, m *metrics.MetricsRegistry) *AttendeeService {
	return &AttendeeService{
		repo:     repositories.NewAttendeeRepository(db),
		events:   repositories.NewEventRepository(db),
		expander: attendees.NewExpander(db, m),
	}
}

func (s *AttendeeService) Add(ctx context.Context, eventID, userID uint) (*gormModels.EventAttendee, error) {
	row, err := s.expander.Add(ctx, eventID, userID)
	if err != nil {
		return nil, attendeeFailure(err)
	}
	return s.repo.GetByID(ctx, row.ID)
}

// BulkAdd returns only the rows it created; users already enrolled are
// skipped silently.
func (s *AttendeeService) BulkAdd(ctx context.Context, eventID uint, userIDs []uint) ([]gormModels.EventAttendee, error) {
	rows, err := s.expander.BulkAdd(ctx, eventID, userIDs)
	return rows, attendeeFailure(err)
}

func (s *AttendeeService) Remove(ctx context.Context, eventID, userID uint) error {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return err
	}
	return attendeeFailure(s.expander.Remove(ctx, eventID, userID))
}

func (s *AttendeeService) BulkRemove(ctx context.Context, eventID uint, userIDs []uint) (int, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return 0, err
	}
	n, err := s.expander.BulkRemove(ctx, eventID, userIDs)
	return n, attendeeFailure(err)
}

func (s *AttendeeService) Get(ctx context.Context, id uint) (*gormModels.EventAttendee, error) {
	row, err := s.repo.GetByID(ctx, id)
	return row, mapped(err, "Event Attendee")
}

func (s *AttendeeService) List(ctx context.Context, eventID uint, req repositories.PageRequest) (*repositories.Page[gormModels.EventAttendee], error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListForEvent(ctx, eventID, req)
}

// Candidates lists users of the departments that could still be added.
func (s *AttendeeService) Candidates(ctx context.Context, eventID uint, departmentIDs []uint, req repositories.PageRequest) (*repositories.Page[gormModels.User], error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.expander.Candidates(ctx, eventID, departmentIDs, req)
}

// SetDelegation grants or revokes one delegation on attendee row id.
func (s *AttendeeService) SetDelegation(ctx context.Context, id uint, d attendees.Delegation, value bool) (*gormModels.EventAttendee, error) {
	if !d.Valid() {
		return nil, invalid("Unknown delegation")
	}
	row, err := s.expander.SetDelegation(ctx, id, d, value)
	if err != nil {
		return nil, attendeeFailure(err)
	}
	return row, nil
}

func (s *AttendeeService) requireEvent(ctx context.Context, eventID uint) error {
	return requireEvent(ctx, s.events, eventID)
}
