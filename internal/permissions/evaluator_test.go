package permissions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/db/dbtest"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/permissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminManagesEveryKind(t *testing.T) {
	admin := permissions.Principal{ID: 1, IsAdmin: true}
	for _, kind := range permissions.Kinds {
		caps := permissions.Derive(admin, permissions.Subject{Kind: kind, ID: 99, OwnerID: 50, EventAuthorID: 51})
		assert.True(t, caps.CanManage, kind)
		assert.True(t, caps.CanEdit, kind)
		assert.True(t, caps.CanDelete, kind)
	}
}

func TestStrangerManagesNothing(t *testing.T) {
	stranger := permissions.Principal{ID: 7, IsStaff: true}
	for _, kind := range permissions.Kinds {
		caps := permissions.Derive(stranger, permissions.Subject{Kind: kind, ID: 99, OwnerID: 50, EventAuthorID: 51})
		assert.False(t, caps.CanManage, kind)
	}
}

func TestOwnershipRules(t *testing.T) {
	const me = 7
	p := permissions.Principal{ID: me}

	tests := []struct {
		name    string
		subject permissions.Subject
		want    bool
	}{
		{"own user record still needs admin", permissions.Subject{Kind: permissions.KindUser, ID: me, OwnerID: me}, false},
		{"department is admin only", permissions.Subject{Kind: permissions.KindDepartment, ID: 1}, false},
		{"venue is admin only", permissions.Subject{Kind: permissions.KindVenue, ID: 1}, false},
		{"event author", permissions.EventSubject(3, me), true},
		{"agenda of own event", permissions.Subject{Kind: permissions.KindEventAgenda, ID: 4, EventID: 3, EventAuthorID: me}, true},
		{"attendee row of own event", permissions.Subject{Kind: permissions.KindEventAttendee, ID: 4, EventID: 3, EventAuthorID: me}, true},
		{"own minute on someone else's event", permissions.Subject{Kind: permissions.KindEventMinute, ID: 4, OwnerID: me, EventID: 3, EventAuthorID: 8}, true},
		{"document owner is not enough", permissions.Subject{Kind: permissions.KindEventDocument, ID: 4, OwnerID: me, EventID: 3, EventAuthorID: 8}, false},
		{"own note", permissions.Subject{Kind: permissions.KindEventUserDocumentNote, ID: 4, OwnerID: me, EventID: 3, EventAuthorID: 8}, true},
		{"note on own event", permissions.Subject{Kind: permissions.KindEventUserDocumentNote, ID: 4, OwnerID: 9, EventID: 3, EventAuthorID: me}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := permissions.Derive(p, tt.subject)
			assert.Equal(t, tt.want, caps.CanManage)
			assert.Equal(t, caps.CanManage, caps.CanEdit)
			assert.Equal(t, caps.CanManage, caps.CanDelete)
		})
	}
}

func TestAnonymousPrincipalNeverMatchesUnownedRows(t *testing.T) {
	caps := permissions.Derive(permissions.Principal{}, permissions.Subject{Kind: permissions.KindEventMinute, ID: 1})
	assert.False(t, caps.CanManage)
}

func TestDeriveEvent(t *testing.T) {
	p := permissions.Principal{ID: 7}

	assert.Equal(t, permissions.EventCapabilities{}, permissions.DeriveEvent(p, 8, nil))
	assert.Equal(t,
		permissions.EventCapabilities{ManageDocuments: true, ManageAgendas: true, ManageMinutes: true},
		permissions.DeriveEvent(p, 7, nil))
	assert.Equal(t,
		permissions.EventCapabilities{ManageDocuments: true, ManageMinutes: true},
		permissions.DeriveEvent(p, 8, &permissions.Delegations{CanUpload: true, ManageMinutes: true}))
}

func TestEvaluatorAgainstStore(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	ev := permissions.NewEvaluator(permissions.NewGormLookup(db))

	author := dbtest.User(t, db, "author", false)
	guest := dbtest.User(t, db, "guest", false)
	venue := dbtest.Venue(t, db, "Hall")
	event := dbtest.Event(t, db, venue, author, dbtest.At(10, 0), time.Hour)

	minute := &gormModels.EventMinute{EventID: event.ID, AuthorID: guest.ID, Content: "noted", Index: 1}
	require.NoError(t, db.Create(minute).Error)
	doc := &gormModels.EventDocument{EventID: event.ID, Title: "Pack", File: "x.pdf"}
	require.NoError(t, db.Create(doc).Error)
	note := &gormModels.EventUserDocumentNote{EventDocumentID: doc.ID, UserID: guest.ID, Note: "read"}
	require.NoError(t, db.Create(note).Error)

	s, err := ev.Resolve(ctx, permissions.KindEventMinute, minute.ID)
	require.NoError(t, err)
	assert.Equal(t, guest.ID, s.OwnerID)
	assert.Equal(t, event.ID, s.EventID)
	assert.Equal(t, author.ID, s.EventAuthorID)

	caps, err := ev.Evaluate(ctx, permissions.Principal{ID: guest.ID}, permissions.KindEventMinute, minute.ID)
	require.NoError(t, err)
	assert.True(t, caps.CanManage)

	caps, err = ev.Evaluate(ctx, permissions.Principal{ID: guest.ID}, permissions.KindEventUserDocumentNote, note.ID)
	require.NoError(t, err)
	assert.True(t, caps.CanManage)

	caps, err = ev.Evaluate(ctx, permissions.Principal{ID: guest.ID}, permissions.KindEvent, event.ID)
	require.NoError(t, err)
	assert.False(t, caps.CanManage)

	_, err = ev.Evaluate(ctx, permissions.Principal{ID: guest.ID}, permissions.KindVenue, 9999)
	assert.ErrorIs(t, err, permissions.ErrNotFound)
}

func TestEventCapabilitiesFromAttendeeFlags(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	ev := permissions.NewEvaluator(permissions.NewGormLookup(db))

	author := dbtest.User(t, db, "author", false)
	guest := dbtest.User(t, db, "guest", false)
	outsider := dbtest.User(t, db, "outsider", false)
	venue := dbtest.Venue(t, db, "Hall")
	event := dbtest.Event(t, db, venue, author, dbtest.At(10, 0), time.Hour)
	row := dbtest.Attendee(t, db, event, guest)
	require.NoError(t, db.Model(row).Update("manage_agendas", true).Error)

	caps, err := ev.EventCapabilities(ctx, permissions.Principal{ID: guest.ID}, event.ID)
	require.NoError(t, err)
	assert.Equal(t, permissions.EventCapabilities{ManageAgendas: true}, caps)

	caps, err = ev.EventCapabilities(ctx, permissions.Principal{ID: outsider.ID}, event.ID)
	require.NoError(t, err)
	assert.Equal(t, permissions.EventCapabilities{}, caps)

	caps, err = ev.EventCapabilities(ctx, permissions.Principal{ID: author.ID}, event.ID)
	require.NoError(t, err)
	assert.True(t, caps.ManageDocuments)
}

type countingLookup struct {
	permissions.OwnershipLookup
	calls int
}

func (c *countingLookup) Subject(ctx context.Context, kind permissions.Kind, id uint) (permissions.Subject, error) {
	c.calls++
	return c.OwnershipLookup.Subject(ctx, kind, id)
}

func TestCachedLookup(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	author := dbtest.User(t, db, "author", false)
	venue := dbtest.Venue(t, db, "Hall")
	event := dbtest.Event(t, db, venue, author, dbtest.At(10, 0), time.Hour)

	inner := &countingLookup{OwnershipLookup: permissions.NewGormLookup(db)}
	cached := permissions.NewCachedLookup(inner, common.NewCacheService(time.Minute, time.Minute), time.Minute)

	for i := 0; i < 3; i++ {
		s, err := cached.Subject(ctx, permissions.KindEvent, event.ID)
		require.NoError(t, err)
		assert.Equal(t, author.ID, s.EventAuthorID)
	}
	assert.Equal(t, 1, inner.calls)

	_, err := cached.Subject(ctx, permissions.KindEvent, 9999)
	assert.ErrorIs(t, err, permissions.ErrNotFound)
}

func TestCachedLookupExpiresDeletedRows(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	author := dbtest.User(t, db, "author", false)
	event := dbtest.Event(t, db, dbtest.Venue(t, db, "Hall"), author, dbtest.At(10, 0), time.Hour)

	ttl := 50 * time.Millisecond
	cached := permissions.NewCachedLookup(permissions.NewGormLookup(db), common.NewCacheService(ttl, time.Minute), ttl)
	_, err := cached.Subject(ctx, permissions.KindEvent, event.ID)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&gormModels.Event{}, event.ID).Error)
	s, err := cached.Subject(ctx, permissions.KindEvent, event.ID)
	require.NoError(t, err, "a deleted row resolves until its entry expires")
	assert.Equal(t, author.ID, s.EventAuthorID)

	assert.Eventually(t, func() bool {
		_, err := cached.Subject(ctx, permissions.KindEvent, event.ID)
		return errors.Is(err, permissions.ErrNotFound)
	}, time.Second, 10*time.Millisecond)
}
