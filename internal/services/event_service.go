package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"meetings/boardroom/internal/attendees"
	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/membership"
	"meetings/boardroom/internal/metrics"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/scheduling"

	"gorm.io/gorm"
)

const venueUnavailable = "Venue is not available for the event time"

// EventRequest describes an event. The end is either EndTime or StartTime
// plus Duration counted in DurationType units.
type EventRequest struct {
	Title         string               `json:"title"`
	Description   *string              `json:"description"`
	EventType     gormModels.EventType `json:"event_type"`
	StartTime     time.Time            `json:"start_time"`
	EndTime       *time.Time           `json:"end_time"`
	Duration      int                  `json:"duration"`
	DurationType  string               `json:"duration_type"`
	VenueID       uint                 `json:"venue_id"`
	FinancialYear *string              `json:"financial_year"`
	DepartmentIDs []uint               `json:"departments"`
	CommitteeIDs  []uint               `json:"committees"`
}

func (r EventRequest) interval() (scheduling.Interval, error) {
	if strings.TrimSpace(r.Title) == "" {
		return scheduling.Interval{}, invalid("Title is required")
	}
	if r.EventType != "" && !r.EventType.Valid() {
		return scheduling.Interval{}, invalid("Invalid event type")
	}

	iv := scheduling.Interval{Start: r.StartTime.UTC()}
	switch {
	case r.EndTime != nil:
		iv.End = r.EndTime.UTC()
	case r.Duration > 0:
		unit, ok := durationUnits[strings.ToLower(r.DurationType)]
		if !ok {
			return scheduling.Interval{}, invalid("Invalid duration type")
		}
		iv.End = iv.Start.Add(time.Duration(r.Duration) * unit)
	}
	if err := iv.Validate(); err != nil {
		return scheduling.Interval{}, invalid("End time must be after start time")
	}
	return iv, nil
}

var durationUnits = map[string]time.Duration{
	"":        time.Minute,
	"minutes": time.Minute,
	"hours":   time.Hour,
	"days":    24 * time.Hour,
}

type EventService struct {
	db       *gorm.DB
	repo     *repositories.EventRepository
	expander *attendees.Expander
	metrics  *metrics.MetricsRegistry
}

func NewEventService(db *gorm.DB, m *metrics.MetricsRegistry) *EventService {
	return &EventService{
		db:       db,
		repo:     repositories.NewEventRepository(db),
		expander: attendees.NewExpander(db, m),
		metrics:  m,
	}
}

// book checks the venue inside tx. The venue row stays locked until tx
// ends, so two bookings of one venue cannot both pass the check.
func (s *EventService) book(ctx context.Context, tx *gorm.DB, venueID uint, iv scheduling.Interval, excludeEventID *uint) error {
	if _, err := repositories.NewVenueRepository(tx).Lock(ctx, venueID); err != nil {
		return mapped(err, "Venue")
	}
	conflicts, err := scheduling.NewGuard(tx).Conflicts(ctx, venueID, iv, excludeEventID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		if s.metrics != nil {
			s.metrics.VenueConflictsTotal.Inc()
		}
		logging.Info("Venue booking rejected",
			"venue_id", venueID,
			"start", iv.Start,
			"end", iv.End,
			"conflicting_event_id", conflicts[0].EventID)
		return conflict(venueUnavailable)
	}
	return nil
}

// Create books the venue, stores the event authored by authorID and
// enrolls the members of the listed departments and committees, all in
// one transaction.
func (s *EventService) Create(ctx context.Context, authorID uint, req EventRequest) (*gormModels.Event, error) {
	iv, err := req.interval()
	if err != nil {
		return nil, err
	}

	event := &gormModels.Event{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		EventType:     req.EventType,
		StartTime:     iv.Start,
		EndTime:       iv.End,
		VenueID:       req.VenueID,
		AuthorID:      authorID,
		FinancialYear: req.FinancialYear,
	}

	var added int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.book(ctx, tx, req.VenueID, iv, nil); err != nil {
			return err
		}
		if err := repositories.NewEventRepository(tx).Create(ctx, event); err != nil {
			return err
		}
		res, err := s.expander.WithTx(tx).Expand(ctx, event.ID, req.DepartmentIDs, req.CommitteeIDs)
		if err != nil {
			return attendeeFailure(err)
		}
		added = len(res.Added)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EventsCreatedTotal.Inc()
	}
	logging.Info("Event created",
		"event_id", event.ID,
		"venue_id", event.VenueID,
		"author_id", authorID,
		"attendees", added)
	return s.repo.GetByID(ctx, event.ID)
}

// Update rewrites the event. Membership links are left alone.
func (s *EventService) Update(ctx context.Context, id uint, req EventRequest) (*gormModels.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	iv, err := req.interval()
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.book(ctx, tx, req.VenueID, iv, &id); err != nil {
			return err
		}
		event.Title = strings.TrimSpace(req.Title)
		event.Description = req.Description
		if req.EventType != "" {
			event.EventType = req.EventType
		}
		event.StartTime = iv.Start
		event.EndTime = iv.End
		event.VenueID = req.VenueID
		event.FinancialYear = req.FinancialYear
		return repositories.NewEventRepository(tx).Save(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *EventService) Delete(ctx context.Context, id uint) error {
	return mapped(s.repo.Delete(ctx, id), "Event")
}

// SetActive blocks or unblocks the event. Blocked events hold no venue
// time, so unblocking books the venue again.
func (s *EventService) SetActive(ctx context.Context, id uint, active bool) (*gormModels.Event, error) {
	if !active {
		if err := s.repo.SetActive(ctx, id, false); err != nil {
			return nil, mapped(err, "Event")
		}
		return s.Get(ctx, id)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := repositories.NewEventRepository(tx)
		event, err := events.GetByID(ctx, id)
		if err != nil {
			return mapped(err, "Event")
		}
		if event.IsActive {
			return nil
		}
		iv := scheduling.Interval{Start: event.StartTime, End: event.EndTime}
		if err := s.book(ctx, tx, event.VenueID, iv, &id); err != nil {
			return err
		}
		return mapped(events.SetActive(ctx, id, true), "Event")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *EventService) Get(ctx context.Context, id uint) (*gormModels.Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	return e, mapped(err, "Event")
}

// EventDetail is an event with the groups invited to it.
type EventDetail struct {
	*gormModels.Event
	Departments []gormModels.EventDepartment `json:"departments"`
	Committees  []gormModels.EventCommittee  `json:"committees"`
}

func (s *EventService) Detail(ctx context.Context, id uint) (*EventDetail, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &EventDetail{Event: e}
	if d.Departments, err = s.repo.Departments(ctx, id); err != nil {
		return nil, err
	}
	if d.Committees, err = s.repo.Committees(ctx, id); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *EventService) List(ctx context.Context, req repositories.PageRequest) (*repositories.Page[gormModels.Event], error) {
	return s.repo.List(ctx, repositories.EventFilter{}, req)
}

func (s *EventService) Types() []gormModels.EventType {
	return gormModels.EventTypes
}

// MyEvents lists events the user authored or attends.
func (s *EventService) MyEvents(ctx context.Context, userID uint, req repositories.PageRequest) (*repositories.Page[gormModels.Event], error) {
	ids, err := membership.New(s.db).EventsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, repositories.EventFilter{IDs: ids}, req)
}

func (s *EventService) AuthoredEvents(ctx context.Context, userID uint, req repositories.PageRequest) (*repositories.Page[gormModels.Event], error) {
	return s.repo.List(ctx, repositories.EventFilter{AuthorID: &userID}, req)
}

// SubscribedEvents lists events the user attends, authored or not.
func (s *EventService) SubscribedEvents(ctx context.Context, userID uint, req repositories.PageRequest) (*repositories.Page[gormModels.Event], error) {
	ids, err := membership.New(s.db).AttendedEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, repositories.EventFilter{IDs: ids}, req)
}

// AddDepartment links the department and enrolls its members.
func (s *EventService) AddDepartment(ctx context.Context, eventID, departmentID uint) (*gormModels.EventDepartment, error) {
	if err := s.requireEventAnd(ctx, eventID, &gormModels.Department{}, departmentID, "Department"); err != nil {
		return nil, err
	}

	var link *gormModels.EventDepartment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if link, err = repositories.NewEventRepository(tx).AddDepartment(ctx, eventID, departmentID); err != nil {
			return mapped(err, "Event Department")
		}
		_, err = s.expander.WithTx(tx).Expand(ctx, eventID, []uint{departmentID}, nil)
		return attendeeFailure(err)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *EventService) RemoveDepartment(ctx context.Context, eventID, departmentID uint) error {
	if err := s.requireEventAnd(ctx, eventID, &gormModels.Department{}, departmentID, "Department"); err != nil {
		return err
	}
	return mapped(s.repo.RemoveDepartment(ctx, eventID, departmentID), "Event Department")
}

// AddCommittee links the committee and enrolls its members.
func (s *EventService) AddCommittee(ctx context.Context, eventID, committeeID uint) (*gormModels.EventCommittee, error) {
	if err := s.requireEventAnd(ctx, eventID, &gormModels.Committee{}, committeeID, "Committee"); err != nil {
		return nil, err
	}

	var link *gormModels.EventCommittee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if link, err = repositories.NewEventRepository(tx).AddCommittee(ctx, eventID, committeeID); err != nil {
			return mapped(err, "Event Committee")
		}
		_, err = s.expander.WithTx(tx).Expand(ctx, eventID, nil, []uint{committeeID})
		return attendeeFailure(err)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *EventService) RemoveCommittee(ctx context.Context, eventID, committeeID uint) error {
	if err := s.requireEventAnd(ctx, eventID, &gormModels.Committee{}, committeeID, "Committee"); err != nil {
		return err
	}
	return mapped(s.repo.RemoveCommittee(ctx, eventID, committeeID), "Event Committee")
}

func (s *EventService) requireEventAnd(ctx context.Context, eventID uint, model interface{}, id uint, entity string) error {
	if _, err := s.Get(ctx, eventID); err != nil {
		return err
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound(entity)
	}
	return nil
}

// attendeeFailure maps expansion errors onto failures.
func attendeeFailure(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, attendees.ErrEventNotFound):
		return notFound("Event")
	case errors.Is(err, attendees.ErrDepartmentNotFound):
		return notFound("Department")
	case errors.Is(err, attendees.ErrCommitteeNotFound):
		return notFound("Committee")
	case errors.Is(err, attendees.ErrUserNotFound):
		return notFound("User")
	case errors.Is(err, attendees.ErrAttendeeNotFound):
		return notFound("Event Attendee")
	case errors.Is(err, attendees.ErrAlreadyAttending):
		return alreadyExists("Event Attendee")
	default:
		return err
	}
}
