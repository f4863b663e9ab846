// Package dbtest opens throwaway sqlite databases and seeds fixtures for
// package tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"meetings/boardroom/internal/db"
	gormModels "meetings/boardroom/internal/models/gorm"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database private to the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(context.Background(), gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return gdb
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Failed to seed fixture: %v", err)
	}
}

func User(t testing.TB, gdb *gorm.DB, first string, admin bool) *gormModels.User {
	t.Helper()
	email := fmt.Sprintf("%s.%s@example.go.tz", first, uuid.NewString()[:8])
	u := &gormModels.User{
		FirstName: first,
		LastName:  "Tester",
		Email:     &email,
		Username:  email,
		IsAdmin:   admin,
	}
	must(t, gdb.Create(u).Error)
	return u
}

func Department(t testing.TB, gdb *gorm.DB, name string, members ...*gormModels.User) *gormModels.Department {
	t.Helper()
	d := &gormModels.Department{Name: name}
	must(t, gdb.Create(d).Error)
	for _, m := range members {
		must(t, gdb.Create(&gormModels.UserDepartment{UserID: m.ID, DepartmentID: d.ID}).Error)
	}
	return d
}

func Committee(t testing.TB, gdb *gorm.DB, name string, members ...*gormModels.User) *gormModels.Committee {
	t.Helper()
	c := &gormModels.Committee{Name: name}
	must(t, gdb.Create(c).Error)
	for _, m := range members {
		must(t, gdb.Create(&gormModels.UserCommittee{UserID: m.ID, CommitteeID: c.ID}).Error)
	}
	return c
}

func Venue(t testing.TB, gdb *gorm.DB, name string) *gormModels.Venue {
	t.Helper()
	v := &gormModels.Venue{Name: name, Capacity: 40}
	must(t, gdb.Create(v).Error)
	return v
}

// Event books an event at venue starting at start for d.
func Event(t testing.TB, gdb *gorm.DB, venue *gormModels.Venue, author *gormModels.User, start time.Time, d time.Duration) *gormModels.Event {
	t.Helper()
	e := &gormModels.Event{
		Title:     "Meeting " + uuid.NewString()[:6],
		StartTime: start,
		EndTime:   start.Add(d),
		VenueID:   venue.ID,
		AuthorID:  author.ID,
	}
	must(t, gdb.Create(e).Error)
	return e
}

func Attendee(t testing.TB, gdb *gorm.DB, event *gormModels.Event, user *gormModels.User) *gormModels.EventAttendee {
	t.Helper()
	a := &gormModels.EventAttendee{EventID: event.ID, AttendeeID: user.ID}
	must(t, gdb.Create(a).Error)
	return a
}

// At builds a UTC time on a fixed test day.
func At(hour, minute int) time.Time {
	return time.Date(2026, time.March, 10, hour, minute, 0, 0, time.UTC)
}
