package services_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/db/dbtest"
	"meetings/boardroom/internal/db/repositories"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/phone"
	"meetings/boardroom/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func withPhone(t *testing.T, db *gorm.DB, u *gormModels.User, number string) {
	t.Helper()
	require.NoError(t, db.Model(u).Update("phone", number).Error)
}

func TestInvitations(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	author := dbtest.User(t, db, "author", false)
	reachable := dbtest.User(t, db, "reachable", false)
	silent := dbtest.User(t, db, "silent", false)
	withPhone(t, db, reachable, "255712345678")
	event := dbtest.Event(t, db, dbtest.Venue(t, db, "Hall"), author, dbtest.At(10, 0), time.Hour)
	row := dbtest.Attendee(t, db, event, reachable)
	dbtest.Attendee(t, db, event, silent)

	sms := &mockDispatcher{}
	svc := services.NewInvitationService(db, sms)

	sent, err := svc.SendAll(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "attendees without a phone are skipped")
	require.Len(t, sms.sent, 1)
	assert.Equal(t, "255712345678", sms.sent[0].to)
	assert.Contains(t, sms.sent[0].message, event.Title)
	assert.Contains(t, sms.sent[0].message, "at Hall on 10 Mar 2026 from 10:00 to 11:00")

	ok, err := svc.SendOne(ctx, event.ID, row.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	other := dbtest.Event(t, db, dbtest.Venue(t, db, "Annex"), author, dbtest.At(10, 0), time.Hour)
	_, err = svc.SendOne(ctx, other.ID, row.ID)
	requireFailure(t, err, services.KindNotFound, "Event Attendee does not exist")

	failing := services.NewInvitationService(db, &mockDispatcher{err: errors.New("gateway down")})
	sent, err = failing.SendAll(ctx, event.ID)
	require.NoError(t, err, "delivery failures never fail the call")
	assert.Zero(t, sent)
}

var passwordPattern = regexp.MustCompile(`Password:([A-Z0-9]{6})$`)

func TestCredentialsAndLogin(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	sms := &mockDispatcher{}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	svc := services.NewCredentialService(db, phone.NewValidator("TZ"), sms, tokens)

	user := dbtest.User(t, db, "neema", false)
	withPhone(t, db, user, "0712345678")

	require.NoError(t, svc.Create(ctx, user.ID))
	require.Len(t, sms.sent, 1)
	msg := sms.sent[0]
	assert.Equal(t, "255712345678", msg.to)
	assert.True(t, strings.HasPrefix(msg.message, "neema Tester, Welcome to the Meeting App."))
	match := passwordPattern.FindStringSubmatch(msg.message)
	require.Len(t, match, 2, msg.message)

	res, err := svc.Login(ctx, *user.Email, match[1])
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = svc.Login(ctx, *user.Email, "WRONG1")
	requireFailure(t, err, services.KindValidation, "Authentication Failed")
	_, err = svc.Login(ctx, "nobody@example.go.tz", "x")
	requireFailure(t, err, services.KindNotFound, "Authentication Failed User not found")

	require.NoError(t, repositories.NewUserRepository(db).SetActive(ctx, user.ID, false))
	_, err = svc.Login(ctx, *user.Email, match[1])
	requireFailure(t, err, services.KindValidation, "Authentication Failed")
}

func TestCredentialsRequireValidPhone(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	sms := &mockDispatcher{}
	svc := services.NewCredentialService(db, phone.NewValidator("TZ"), sms, auth.NewTokenIssuer("s", time.Hour))

	user := dbtest.User(t, db, "nophone", false)
	requireFailure(t, svc.Create(ctx, user.ID), services.KindValidation, "Invalid Phone Number")
	assert.Empty(t, sms.sent)

	stored, err := repositories.NewUserRepository(db).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPassword(), "nothing is written for an unreachable user")

	good := dbtest.User(t, db, "good", false)
	withPhone(t, db, good, "+255754123456")
	issued, err := svc.CreateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, issued)

	requireFailure(t, svc.Create(ctx, 999), services.KindNotFound, "User does not exist")
}

func TestDirectorySync(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := services.NewDirectorySyncService(db, phone.NewValidator("TZ"))
	existing := dbtest.User(t, db, "old", false)

	export := `[
		{"first_name": "Renamed", "last_name": "Tester", "email": "` + strings.ToUpper(*existing.Email) + `", "phone": "0712345678"},
		{"first_name": "New", "last_name": "Hire", "email": "new.hire@example.go.tz", "phone": "0754123456"},
		{"first_name": "No", "last_name": "Mail", "email": "", "phone": "0754123456"},
		{"first_name": "Bad", "last_name": "Phone", "email": "bad@example.go.tz", "phone": "12"}
	]`
	report, err := svc.Sync(ctx, strings.NewReader(export))
	require.NoError(t, err)
	assert.Equal(t, services.SyncReport{Created: 1, Updated: 1, Skipped: 2}, *report)

	users := repositories.NewUserRepository(db)
	renamed, err := users.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.FirstName)
	assert.Equal(t, "255712345678", *renamed.Phone)

	hire, err := users.FindByEmail(ctx, "new.hire@example.go.tz")
	require.NoError(t, err)
	assert.Equal(t, "new.hire@example.go.tz", hire.Username)

	again, err := svc.Sync(ctx, strings.NewReader(export))
	require.NoError(t, err)
	assert.Equal(t, services.SyncReport{Updated: 2, Skipped: 2}, *again)

	_, err = svc.Sync(ctx, strings.NewReader("{"))
	assert.Error(t, err)
}
