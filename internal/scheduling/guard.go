// Package scheduling keeps venues from being double-booked. Bookings are
// half-open intervals [Start, End): an event ending at 11:00 and another
// starting at 11:00 do not conflict.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

var ErrInvalidInterval = errors.New("end time must be after start time")

type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Validate() error {
	if !i.End.After(i.Start) {
		return ErrInvalidInterval
	}
	return nil
}

func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Booking is an event's hold on a venue.
type Booking struct {
	EventID uint
	VenueID uint
	Interval
}

// DetectConflicts returns the bookings in existing that clash with
// candidate: same venue, different event, overlapping interval.
func DetectConflicts(existing []Booking, candidate Booking) []Booking {
	var out []Booking
	for _, b := range existing {
		if b.VenueID != candidate.VenueID {
			continue
		}
		if candidate.EventID != 0 && b.EventID == candidate.EventID {
			continue
		}
		if b.Overlaps(candidate.Interval) {
			out = append(out, b)
		}
	}
	return out
}

// Guard checks venue availability against stored active events. Bind it to
// the transaction that will write the event so the check and the insert
// see the same state.
type Guard struct {
	db *gorm.DB
}

func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// Conflicts lists active events at venueID overlapping interval. When
// excludeEventID is set that event is ignored, which is how an update
// avoids clashing with itself.
func (g *Guard) Conflicts(ctx context.Context, venueID uint, interval Interval, excludeEventID *uint) ([]Booking, error) {
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	q := g.db.WithContext(ctx).Model(&gormModels.Event{}).
		Select("id", "venue_id", "start_time", "end_time").
		Where("venue_id = ? AND is_active = ?", venueID, true).
		Where("start_time < ? AND end_time > ?", interval.End.UTC(), interval.Start.UTC())
	if excludeEventID != nil {
		q = q.Where("id <> ?", *excludeEventID)
	}

	var rows []gormModels.Event
	if err := q.Order("start_time").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query venue bookings: %w", err)
	}

	bookings := make([]Booking, 0, len(rows))
	for _, e := range rows {
		bookings = append(bookings, Booking{
			EventID:  e.ID,
			VenueID:  e.VenueID,
			Interval: Interval{Start: e.StartTime, End: e.EndTime},
		})
	}
	return bookings, nil
}

func (g *Guard) IsAvailable(ctx context.Context, venueID uint, interval Interval, excludeEventID *uint) (bool, error) {
	conflicts, err := g.Conflicts(ctx, venueID, interval, excludeEventID)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}
