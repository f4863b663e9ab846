package services

import (
	"context"
	"fmt"

	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/notify"

	"gorm.io/gorm"
)

// InvitationService texts attendees about an event. Delivery is best
// effort: failures are logged and never fail the call.
type InvitationService struct {
	events     *repositories.EventRepository
	attendees  *repositories.AttendeeRepository
	dispatcher notify.Dispatcher
}

func NewInvitationService(db *gorm.DB, dispatcher notify.Dispatcher) *InvitationService {
	return &InvitationService{
		events:     repositories.NewEventRepository(db),
		attendees:  repositories.NewAttendeeRepository(db),
		dispatcher: dispatcher,
	}
}

func invitationText(name string, e *gormModels.Event) string {
	venue := "the venue"
	if e.Venue != nil {
		venue = e.Venue.Name
	}
	return fmt.Sprintf("%s, you are invited to %s at %s on %s from %s to %s.",
		name,
		e.Title,
		venue,
		e.StartTime.Format("02 Jan 2006"),
		e.StartTime.Format("15:04"),
		e.EndTime.Format("15:04"))
}

// SendAll invites every attendee with a phone number and reports how many
// messages were handed to the dispatcher.
func (s *InvitationService) SendAll(ctx context.Context, eventID uint) (int, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return 0, mapped(err, "Event")
	}
	rows, err := s.attendees.AllForEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range rows {
		if s.invite(ctx, event, &rows[i]) {
			sent++
		}
	}
	logging.Info("Event invitations sent", "event_id", eventID, "attendees", len(rows), "sent", sent)
	return sent, nil
}

// SendOne invites the attendee row attendeeID of the event.
func (s *InvitationService) SendOne(ctx context.Context, eventID, attendeeID uint) (bool, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return false, mapped(err, "Event")
	}
	row, err := s.attendees.GetByID(ctx, attendeeID)
	if err != nil {
		return false, mapped(err, "Event Attendee")
	}
	if row.EventID != eventID {
		return false, notFound("Event Attendee")
	}
	return s.invite(ctx, event, row), nil
}

func (s *InvitationService) invite(ctx context.Context, event *gormModels.Event, row *gormModels.EventAttendee) bool {
	user := row.Attendee
	if user == nil || user.Phone == nil || *user.Phone == "" {
		return false
	}
	name := user.FullName()
	if err := s.dispatcher.Send(ctx, *user.Phone, invitationText(name, event), name); err != nil {
		logging.Warn("Failed to send invitation",
			"event_id", event.ID,
			"user_id", user.ID,
			"error", err)
		return false
	}
	return true
}
