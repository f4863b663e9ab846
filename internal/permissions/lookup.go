package permissions

import (
	"context"
	"errors"
	"fmt"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

// source tells the gorm lookup where a kind's facts live. owner and event
// are column expressions; empty means the kind has none.
type source struct {
	table string
	join  string
	owner string
	event string
}

var sources = map[Kind]source{
	KindUser:                {table: "users", owner: "users.id"},
	KindDepartment:          {table: "departments"},
	KindCommittee:           {table: "committees"},
	KindVenue:               {table: "venues"},
	KindCommitteeDepartment: {table: "committee_departments"},
	KindUserCommittee:       {table: "user_committees"},
	KindUserDepartment:      {table: "user_departments"},
	KindEvent:               {table: "events", event: "events.id"},
	KindEventDepartment:     {table: "event_departments", event: "event_departments.event_id"},
	KindEventCommittee:      {table: "event_committees", event: "event_committees.event_id"},
	KindEventAttendee:       {table: "event_attendees", event: "event_attendees.event_id"},
	KindEventAgenda:         {table: "event_agendas", event: "event_agendas.event_id"},
	KindEventDocument:       {table: "event_documents", event: "event_documents.event_id"},
	KindEventMinute: {
		table: "event_minutes",
		owner: "event_minutes.author_id",
		event: "event_minutes.event_id",
	},
	KindEventUserDocumentNote: {
		table: "event_user_document_notes",
		join:  "JOIN event_documents ON event_documents.id = event_user_document_notes.event_document_id",
		owner: "event_user_document_notes.user_id",
		event: "event_documents.event_id",
	},
}

type factsRow struct {
	ID      uint
	OwnerID uint
	EventID uint
}

// GormLookup reads ownership facts straight from the tables.
type GormLookup struct {
	db *gorm.DB
}

func NewGormLookup(db *gorm.DB) *GormLookup {
	return &GormLookup{db: db}
}

func (l *GormLookup) Subject(ctx context.Context, kind Kind, id uint) (Subject, error) {
	src, ok := sources[kind]
	if !ok {
		return Subject{}, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}

	owner, event := "0", "0"
	if src.owner != "" {
		owner = src.owner
	}
	if src.event != "" {
		event = src.event
	}

	q := l.db.WithContext(ctx).Table(src.table)
	if src.join != "" {
		q = q.Joins(src.join)
	}
	var row factsRow
	res := q.Select(fmt.Sprintf("%s.id AS id, %s AS owner_id, %s AS event_id", src.table, owner, event)).
		Where(src.table+".id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return Subject{}, fmt.Errorf("failed to load %s facts: %w", kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return Subject{}, ErrNotFound
	}

	s := Subject{Kind: kind, ID: row.ID, OwnerID: row.OwnerID, EventID: row.EventID}
	if s.EventID != 0 {
		var author []uint
		err := l.db.WithContext(ctx).Model(&gormModels.Event{}).
			Where("id = ?", s.EventID).
			Limit(1).
			Pluck("author_id", &author).Error
		if err != nil {
			return Subject{}, fmt.Errorf("failed to load event author: %w", err)
		}
		if len(author) == 0 {
			return Subject{}, ErrNotFound
		}
		s.EventAuthorID = author[0]
	}
	return s, nil
}

func (l *GormLookup) Delegations(ctx context.Context, eventID, userID uint) (*Delegations, error) {
	var row gormModels.EventAttendee
	err := l.db.WithContext(ctx).
		Where("event_id = ? AND attendee_id = ?", eventID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attendee row: %w", err)
	}
	return &Delegations{
		CanUpload:     row.CanUpload,
		ManageAgendas: row.ManageAgendas,
		ManageMinutes: row.ManageMinutes,
	}, nil
}
