package services_test

import (
	"context"
	"testing"
	"time"

	"meetings/boardroom/internal/db/dbtest"
	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/metrics"
	"meetings/boardroom/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func timePtr(t time.Time) *time.Time { return &t }

func TestEventCreateBooksVenueAndExpands(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	svc := services.NewEventService(db, metrics.NewMetricsRegistry(reg))

	author := dbtest.User(t, db, "author", false)
	a := dbtest.User(t, db, "a", false)
	b := dbtest.User(t, db, "b", false)
	c := dbtest.User(t, db, "c", false)
	hall := dbtest.Venue(t, db, "Hall")
	finance := dbtest.Department(t, db, "Finance", a, b)
	board := dbtest.Committee(t, db, "Board", b, c)

	event, err := svc.Create(ctx, author.ID, services.EventRequest{
		Title:         "Budget review",
		StartTime:     dbtest.At(10, 0),
		EndTime:       timePtr(dbtest.At(11, 0)),
		VenueID:       hall.ID,
		DepartmentIDs: []uint{finance.ID},
		CommitteeIDs:  []uint{board.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, author.ID, event.AuthorID)
	require.NotNil(t, event.Venue)
	assert.Equal(t, "Hall", event.Venue.Name)

	ids, err := repositories.NewAttendeeRepository(db).AttendeeIDs(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID, c.ID}, ids)

	detail, err := svc.Detail(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Departments, 1)
	assert.Len(t, detail.Committees, 1)

	assert.Equal(t, 1.0, counterValue(t, reg, "boardroom_events_created_total"))
	assert.Equal(t, 3.0, counterValue(t, reg, "boardroom_attendees_enrolled_total"))
}

func TestEventCreateRejectsOverlap(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	svc := services.NewEventService(db, metrics.NewMetricsRegistry(reg))
	author := dbtest.User(t, db, "author", false)
	hall := dbtest.Venue(t, db, "Hall")
	dbtest.Event(t, db, hall, author, dbtest.At(10, 0), time.Hour)

	_, err := svc.Create(ctx, author.ID, services.EventRequest{
		Title: "Clash", StartTime: dbtest.At(10, 30), EndTime: timePtr(dbtest.At(11, 30)), VenueID: hall.ID,
	})
	requireFailure(t, err, services.KindConflict, "Venue is not available for the event time")
	assert.Equal(t, 1.0, counterValue(t, reg, "boardroom_venue_conflicts_total"))
	assert.Zero(t, counterValue(t, reg, "boardroom_events_created_total"))

	next, err := svc.Create(ctx, author.ID, services.EventRequest{
		Title: "Back to back", StartTime: dbtest.At(11, 0), EndTime: timePtr(dbtest.At(12, 0)), VenueID: hall.ID,
	})
	require.NoError(t, err, "an event may start when the previous one ends")

	_, err = svc.Update(ctx, next.ID, services.EventRequest{
		Title: "Back to back", StartTime: dbtest.At(11, 15), EndTime: timePtr(dbtest.At(12, 15)), VenueID: hall.ID,
	})
	require.NoError(t, err, "an update does not clash with itself")

	_, err = svc.Update(ctx, next.ID, services.EventRequest{
		Title: "Back to back", StartTime: dbtest.At(10, 45), EndTime: timePtr(dbtest.At(12, 0)), VenueID: hall.ID,
	})
	requireFailure(t, err, services.KindConflict, "Venue is not available for the event time")
}

func TestEventUnblockRechecksVenue(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := services.NewEventService(db, nil)
	author := dbtest.User(t, db, "author", false)
	hall := dbtest.Venue(t, db, "Hall")
	board := dbtest.Event(t, db, hall, author, dbtest.At(10, 0), time.Hour)

	blocked, err := svc.SetActive(ctx, board.ID, false)
	require.NoError(t, err)
	assert.False(t, blocked.IsActive)

	// the blocked meeting no longer holds the hall
	clash, err := svc.Create(ctx, author.ID, services.EventRequest{
		Title: "Clash", StartTime: dbtest.At(10, 30), EndTime: timePtr(dbtest.At(11, 30)), VenueID: hall.ID,
	})
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, board.ID, true)
	requireFailure(t, err, services.KindConflict, "Venue is not available for the event time")
	got, err := svc.Get(ctx, board.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = svc.SetActive(ctx, clash.ID, false)
	require.NoError(t, err)
	unblocked, err := svc.SetActive(ctx, board.ID, true)
	require.NoError(t, err)
	assert.True(t, unblocked.IsActive)

	_, err = svc.SetActive(ctx, 9999, true)
	requireFailure(t, err, services.KindNotFound, "Event does not exist")
}

func TestEventRequestValidation(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := services.NewEventService(db, nil)
	author := dbtest.User(t, db, "author", false)
	hall := dbtest.Venue(t, db, "Hall")

	_, err := svc.Create(ctx, author.ID, services.EventRequest{
		Title: "Backwards", StartTime: dbtest.At(11, 0), EndTime: timePtr(dbtest.At(10, 0)), VenueID: hall.ID,
	})
	requireFailure(t, err, services.KindValidation, "End time must be after start time")

	_, err = svc.Create(ctx, author.ID, services.EventRequest{
		Title: "Nowhere", StartTime: dbtest.At(10, 0), EndTime: timePtr(dbtest.At(11, 0)), VenueID: 999,
	})
	requireFailure(t, err, services.KindNotFound, "Venue does not exist")

	_, err = svc.Create(ctx, author.ID, services.EventRequest{
		Title: "Ghost group", StartTime: dbtest.At(10, 0), EndTime: timePtr(dbtest.At(11, 0)),
		VenueID: hall.ID, DepartmentIDs: []uint{999},
	})
	requireFailure(t, err, services.KindNotFound, "Department does not exist")
	page, err := svc.List(ctx, repositories.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "a failed expansion rolls the event back")

	e, err := svc.Create(ctx, author.ID, services.EventRequest{
		Title: "Retreat", StartTime: dbtest.At(8, 0), Duration: 2, DurationType: "hours", VenueID: hall.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, dbtest.At(10, 0), e.EndTime.UTC())

	_, err = svc.Create(ctx, author.ID, services.EventRequest{
		Title: "Odd", StartTime: dbtest.At(12, 0), Duration: 2, DurationType: "fortnights", VenueID: hall.ID,
	})
	requireFailure(t, err, services.KindValidation, "Invalid duration type")
}

func TestEventGroupsAndListings(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := services.NewEventService(db, nil)
	author := dbtest.User(t, db, "author", false)
	member := dbtest.User(t, db, "member", false)
	hall := dbtest.Venue(t, db, "Hall")
	audit := dbtest.Department(t, db, "Audit", member)
	event := dbtest.Event(t, db, hall, author, dbtest.At(10, 0), time.Hour)

	_, err := svc.AddDepartment(ctx, event.ID, audit.ID)
	require.NoError(t, err)
	_, err = svc.AddDepartment(ctx, event.ID, audit.ID)
	requireFailure(t, err, services.KindConflict, "Event Department already exists")
	_, err = svc.AddDepartment(ctx, event.ID, 999)
	requireFailure(t, err, services.KindNotFound, "Department does not exist")

	subscribed, err := svc.SubscribedEvents(ctx, member.ID, repositories.PageRequest{})
	require.NoError(t, err)
	require.Len(t, subscribed.Results, 1)
	assert.Equal(t, event.ID, subscribed.Results[0].ID)

	mine, err := svc.MyEvents(ctx, author.ID, repositories.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, mine.Results, 1)

	authored, err := svc.AuthoredEvents(ctx, member.ID, repositories.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, authored.Results)

	require.NoError(t, svc.RemoveDepartment(ctx, event.ID, audit.ID))
	requireFailure(t, svc.RemoveDepartment(ctx, event.ID, audit.ID), services.KindNotFound, "Event Department does not exist")

	subscribed, err = svc.SubscribedEvents(ctx, member.ID, repositories.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, subscribed.Results, 1, "unlinking a department keeps its attendees")
}

func TestAttendeeService(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := services.NewAttendeeService(db, nil)
	author := dbtest.User(t, db, "author", false)
	guest := dbtest.User(t, db, "guest", false)
	event := dbtest.Event(t, db, dbtest.Venue(t, db, "Hall"), author, dbtest.At(10, 0), time.Hour)

	row, err := svc.Add(ctx, event.ID, guest.ID)
	require.NoError(t, err)
	require.NotNil(t, row.Attendee)
	assert.Equal(t, guest.ID, row.Attendee.ID)

	_, err = svc.Add(ctx, event.ID, guest.ID)
	requireFailure(t, err, services.KindConflict, "Event Attendee already exists")
	_, err = svc.Add(ctx, 999, guest.ID)
	requireFailure(t, err, services.KindNotFound, "Event does not exist")

	updated, err := svc.SetDelegation(ctx, row.ID, "can_upload", true)
	require.NoError(t, err)
	assert.True(t, updated.CanUpload)
	_, err = svc.SetDelegation(ctx, row.ID, "is_admin", true)
	requireFailure(t, err, services.KindValidation, "Unknown delegation")

	require.NoError(t, svc.Remove(ctx, event.ID, guest.ID))
	requireFailure(t, svc.Remove(ctx, event.ID, guest.ID), services.KindNotFound, "Event Attendee does not exist")

	removed, err := svc.BulkRemove(ctx, event.ID, []uint{guest.ID})
	require.NoError(t, err)
	assert.Zero(t, removed)
}
