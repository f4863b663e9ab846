package membership_test

import (
	"context"
	"testing"
	"time"

	"meetings/boardroom/internal/db/dbtest"
	"meetings/boardroom/internal/membership"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, []uint{1, 2, 5}, membership.Normalize([]uint{5, 1, 2, 5, 1}))
	assert.Equal(t, []uint{}, membership.Normalize(nil))
}

func TestMembershipQueries(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	ix := membership.New(db)

	alice := dbtest.User(t, db, "alice", false)
	bob := dbtest.User(t, db, "bob", false)
	carol := dbtest.User(t, db, "carol", false)

	finance := dbtest.Department(t, db, "Finance", alice, bob)
	legal := dbtest.Department(t, db, "Legal", alice)
	audit := dbtest.Committee(t, db, "Audit", bob, carol)

	depts, err := ix.DepartmentsOf(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{finance.ID, legal.ID}, depts)

	committees, err := ix.CommitteesOf(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, committees)

	members, err := ix.CommitteeMembers(ctx, audit.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID, carol.ID}, members)

	union, err := ix.MembersOf(ctx, []uint{finance.ID, legal.ID}, []uint{audit.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID, bob.ID, carol.ID}, union)
}

func TestEventsOfIsAuthorOrAttendee(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	ix := membership.New(db)

	alice := dbtest.User(t, db, "alice", false)
	bob := dbtest.User(t, db, "bob", false)
	venue := dbtest.Venue(t, db, "Hall")

	own := dbtest.Event(t, db, venue, alice, dbtest.At(9, 0), time.Hour)
	invited := dbtest.Event(t, db, venue, bob, dbtest.At(11, 0), time.Hour)
	dbtest.Event(t, db, venue, bob, dbtest.At(13, 0), time.Hour)
	dbtest.Attendee(t, db, invited, alice)
	dbtest.Attendee(t, db, own, alice)

	events, err := ix.EventsOf(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{own.ID, invited.ID}, events)

	authored, err := ix.AuthoredEvents(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{own.ID}, authored)
}
