package gorm

import (
	"time"

	gormio "gorm.io/gorm"
)

type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventTraining EventType = "training"
	EventOther    EventType = "other"
)

var EventTypes = []EventType{EventMeeting, EventTraining, EventOther}

func (t EventType) Valid() bool {
	for _, v := range EventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Event is a meeting booked at a venue over [StartTime, EndTime).
type Event struct {
	ID            uint      `gorm:"column:id;primaryKey" json:"id"`
	Title         string    `gorm:"column:title;size:100;not null" json:"title"`
	Description   *string   `gorm:"column:description;type:text" json:"description"`
	EventType     EventType `gorm:"column:event_type;size:20;not null;default:meeting" json:"event_type"`
	StartTime     time.Time `gorm:"column:start_time;not null;index:idx_event_venue_window,priority:2" json:"start_time"`
	EndTime       time.Time `gorm:"column:end_time;not null;index:idx_event_venue_window,priority:3" json:"end_time"`
	VenueID       uint      `gorm:"column:venue_id;not null;index:idx_event_venue_window,priority:1" json:"venue_id"`
	AuthorID      uint      `gorm:"column:author_id;not null;index" json:"author_id"`
	FinancialYear *string   `gorm:"column:financial_year;size:20" json:"financial_year"`
	Venue         *Venue    `gorm:"foreignKey:VenueID;constraint:OnDelete:CASCADE" json:"venue,omitempty"`
	Author        *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	MiscFields
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) BeforeSave(*gormio.DB) error {
	if e.EventType == "" {
		e.EventType = EventMeeting
	}
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	return nil
}

type EventDepartment struct {
	ID           uint        `gorm:"column:id;primaryKey" json:"id"`
	EventID      uint        `gorm:"column:event_id;not null;uniqueIndex:idx_event_department" json:"event_id"`
	DepartmentID uint        `gorm:"column:department_id;not null;uniqueIndex:idx_event_department" json:"department_id"`
	Event        *Event      `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	Department   *Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"department,omitempty"`
	MiscFields
}

func (EventDepartment) TableName() string {
	return "event_departments"
}

type EventCommittee struct {
	ID          uint       `gorm:"column:id;primaryKey" json:"id"`
	EventID     uint       `gorm:"column:event_id;not null;uniqueIndex:idx_event_committee" json:"event_id"`
	CommitteeID uint       `gorm:"column:committee_id;not null;uniqueIndex:idx_event_committee" json:"committee_id"`
	Event       *Event     `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	Committee   *Committee `gorm:"foreignKey:CommitteeID;constraint:OnDelete:CASCADE" json:"committee,omitempty"`
	MiscFields
}

func (EventCommittee) TableName() string {
	return "event_committees"
}

// EventAttendee is the enrolment of one user in one event, with the
// per-attendee delegations.
type EventAttendee struct {
	ID            uint   `gorm:"column:id;primaryKey" json:"id"`
	EventID       uint   `gorm:"column:event_id;not null;uniqueIndex:idx_event_attendee" json:"event_id"`
	AttendeeID    uint   `gorm:"column:attendee_id;not null;uniqueIndex:idx_event_attendee;index" json:"attendee_id"`
	IsAttending   bool   `gorm:"column:is_attending;not null;default:false" json:"is_attending"`
	CanUpload     bool   `gorm:"column:can_upload;not null;default:false" json:"can_upload"`
	ManageAgendas bool   `gorm:"column:manage_agendas;not null;default:false" json:"manage_agendas"`
	ManageMinutes bool   `gorm:"column:manage_minutes;not null;default:false" json:"manage_minutes"`
	Event         *Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	Attendee      *User  `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" json:"attendee,omitempty"`
	MiscFields
}

func (EventAttendee) TableName() string {
	return "event_attendees"
}

type EventAgenda struct {
	ID          uint       `gorm:"column:id;primaryKey" json:"id"`
	EventID     uint       `gorm:"column:event_id;not null;uniqueIndex:idx_event_agenda_title;index" json:"event_id"`
	Title       string     `gorm:"column:title;size:100;not null" json:"title"`
	TitleKey    string     `gorm:"column:title_key;size:100;not null;uniqueIndex:idx_event_agenda_title" json:"-"`
	Description *string    `gorm:"column:description;type:text" json:"description"`
	StartTime   *time.Time `gorm:"column:start_time" json:"start_time"`
	EndTime     *time.Time `gorm:"column:end_time" json:"end_time"`
	Index       int        `gorm:"column:position;not null" json:"index"`
	Event       *Event     `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	MiscFields
}

func (EventAgenda) TableName() string {
	return "event_agendas"
}

func (a *EventAgenda) BeforeSave(*gormio.DB) error {
	a.TitleKey = NameKey(a.Title)
	return nil
}

type EventMinute struct {
	ID       uint   `gorm:"column:id;primaryKey" json:"id"`
	EventID  uint   `gorm:"column:event_id;not null;index" json:"event_id"`
	AuthorID uint   `gorm:"column:author_id;not null" json:"author_id"`
	Content  string `gorm:"column:content;type:text;not null" json:"content"`
	Index    int    `gorm:"column:position;not null" json:"index"`
	Event    *Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	Author   *User  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	MiscFields
}

func (EventMinute) TableName() string {
	return "event_minutes"
}
