package gorm

import (
	"strings"
	"time"
)

// MiscFields is embedded by every table.
type MiscFields struct {
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created;autoCreateTime" json:"created"`
	UpdatedAt time.Time `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

// NameKey normalizes a display name for case-insensitive uniqueness.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// All lists every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Department{},
		&Committee{},
		&UserDepartment{},
		&UserCommittee{},
		&CommitteeDepartment{},
		&Venue{},
		&Event{},
		&EventDepartment{},
		&EventCommittee{},
		&EventAttendee{},
		&EventAgenda{},
		&EventMinute{},
		&EventDocument{},
		&EventDocumentDepartment{},
		&EventUserDocumentNote{},
	}
}
