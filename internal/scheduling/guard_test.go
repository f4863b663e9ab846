package scheduling_test

import (
	"context"
	"testing"
	"time"

	"meetings/boardroom/internal/db/dbtest"
	"meetings/boardroom/internal/scheduling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(h1, m1, h2, m2 int) scheduling.Interval {
	return scheduling.Interval{Start: dbtest.At(h1, m1), End: dbtest.At(h2, m2)}
}

func TestOverlaps(t *testing.T) {
	a := span(10, 0, 11, 0)
	tests := []struct {
		name string
		b    scheduling.Interval
		want bool
	}{
		{"partial tail", span(10, 30, 11, 30), true},
		{"partial head", span(9, 30, 10, 30), true},
		{"straddles", span(9, 0, 12, 0), true},
		{"nested", span(10, 15, 10, 45), true},
		{"adjacent after", span(11, 0, 12, 0), false},
		{"adjacent before", span(9, 0, 10, 0), false},
		{"disjoint", span(13, 0, 14, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(a), "overlap is symmetric")
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, span(10, 0, 11, 0).Validate())
	assert.ErrorIs(t, span(10, 0, 10, 0).Validate(), scheduling.ErrInvalidInterval)
	assert.ErrorIs(t, span(11, 0, 10, 0).Validate(), scheduling.ErrInvalidInterval)
}

func TestDetectConflicts(t *testing.T) {
	existing := []scheduling.Booking{
		{EventID: 1, VenueID: 1, Interval: span(10, 0, 11, 0)},
		{EventID: 2, VenueID: 2, Interval: span(10, 0, 11, 0)},
		{EventID: 3, VenueID: 1, Interval: span(11, 0, 12, 0)},
	}

	got := scheduling.DetectConflicts(existing, scheduling.Booking{VenueID: 1, Interval: span(10, 30, 11, 30)})
	require.Len(t, got, 2)
	assert.EqualValues(t, 1, got[0].EventID)
	assert.EqualValues(t, 3, got[1].EventID)

	got = scheduling.DetectConflicts(existing, scheduling.Booking{EventID: 1, VenueID: 1, Interval: span(10, 0, 10, 30)})
	assert.Empty(t, got, "an event does not conflict with itself")
}

func TestGuardAgainstStore(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	guard := scheduling.NewGuard(db)

	author := dbtest.User(t, db, "author", false)
	hall := dbtest.Venue(t, db, "Hall")
	annex := dbtest.Venue(t, db, "Annex")
	a := dbtest.Event(t, db, hall, author, dbtest.At(10, 0), time.Hour)

	ok, err := guard.IsAvailable(ctx, hall.ID, span(10, 30, 11, 30), nil)
	require.NoError(t, err)
	assert.False(t, ok, "true overlap is rejected")

	ok, err = guard.IsAvailable(ctx, hall.ID, span(11, 0, 12, 0), nil)
	require.NoError(t, err)
	assert.True(t, ok, "adjacent interval is free")

	ok, err = guard.IsAvailable(ctx, hall.ID, span(9, 0, 12, 0), nil)
	require.NoError(t, err)
	assert.False(t, ok, "straddling interval is rejected")

	ok, err = guard.IsAvailable(ctx, annex.ID, span(10, 30, 11, 30), nil)
	require.NoError(t, err)
	assert.True(t, ok, "other venue is free")

	ok, err = guard.IsAvailable(ctx, hall.ID, span(10, 15, 11, 15), &a.ID)
	require.NoError(t, err)
	assert.True(t, ok, "an update does not clash with itself")

	_, err = guard.IsAvailable(ctx, hall.ID, span(12, 0, 11, 0), nil)
	assert.ErrorIs(t, err, scheduling.ErrInvalidInterval)
}

func TestGuardIgnoresBlockedEvents(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	guard := scheduling.NewGuard(db)

	author := dbtest.User(t, db, "author", false)
	hall := dbtest.Venue(t, db, "Hall")
	a := dbtest.Event(t, db, hall, author, dbtest.At(10, 0), time.Hour)
	require.NoError(t, db.Model(a).Update("is_active", false).Error)

	ok, err := guard.IsAvailable(ctx, hall.ID, span(10, 0, 11, 0), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
