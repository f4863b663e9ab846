// Package permissions derives capability flags for a principal against any
// stored entity. The rules live in one place and dispatch on Kind; the
// facts they need (owner, event, event author) come from an
// OwnershipLookup.
//
// Flags describe what the UI should offer. Mutations do not consult them.
package permissions

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the subject does not exist. It is never used to
	// signal missing access.
	ErrNotFound = errors.New("subject not found")
	// ErrUnknownKind is a programming error: a Kind without a source.
	ErrUnknownKind = errors.New("unknown subject kind")
)

type Kind string

const (
	KindUser                  Kind = "user"
	KindDepartment            Kind = "department"
	KindCommittee             Kind = "committee"
	KindVenue                 Kind = "venue"
	KindCommitteeDepartment   Kind = "committee_department"
	KindUserCommittee         Kind = "user_committee"
	KindUserDepartment        Kind = "user_department"
	KindEvent                 Kind = "event"
	KindEventDepartment       Kind = "event_department"
	KindEventCommittee        Kind = "event_committee"
	KindEventAttendee         Kind = "event_attendee"
	KindEventAgenda           Kind = "event_agenda"
	KindEventDocument         Kind = "event_document"
	KindEventMinute           Kind = "event_minute"
	KindEventUserDocumentNote Kind = "event_user_document_note"
)

// Kinds lists every kind the evaluator understands.
var Kinds = []Kind{
	KindUser, KindDepartment, KindCommittee, KindVenue,
	KindCommitteeDepartment, KindUserCommittee, KindUserDepartment,
	KindEvent, KindEventDepartment, KindEventCommittee, KindEventAttendee,
	KindEventAgenda, KindEventDocument, KindEventMinute, KindEventUserDocumentNote,
}

// Principal is the authenticated caller.
type Principal struct {
	ID      uint `json:"id"`
	IsAdmin bool `json:"is_admin"`
	IsStaff bool `json:"is_staff"`
}

// Subject carries the ownership facts of one entity. OwnerID is the user
// that owns the row itself (the user for KindUser, the author of a minute,
// the writer of a note) and is zero when the kind has no owner. EventID and
// EventAuthorID are set for events and everything hanging off one.
type Subject struct {
	Kind          Kind
	ID            uint
	OwnerID       uint
	EventID       uint
	EventAuthorID uint
}

// EventSubject builds the subject of an event from a loaded row.
func EventSubject(eventID, authorID uint) Subject {
	return Subject{Kind: KindEvent, ID: eventID, EventID: eventID, EventAuthorID: authorID}
}

type Capabilities struct {
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanManage bool `json:"can_manage"`
}

// EventCapabilities are the delegated rights on one event.
type EventCapabilities struct {
	ManageDocuments bool `json:"manage_documents"`
	ManageAgendas   bool `json:"manage_agendas"`
	ManageMinutes   bool `json:"manage_minutes"`
}

// Delegations mirrors the flags on an attendee row.
type Delegations struct {
	CanUpload     bool
	ManageAgendas bool
	ManageMinutes bool
}

// Derive computes the capability set. Edit, delete and manage share one
// predicate.
func Derive(p Principal, s Subject) Capabilities {
	ok := allowed(p, s)
	return Capabilities{CanEdit: ok, CanDelete: ok, CanManage: ok}
}

func allowed(p Principal, s Subject) bool {
	if p.IsAdmin {
		return true
	}
	if p.ID == 0 {
		return false
	}

	switch s.Kind {
	case KindUser:
		// Only reachable by non-admins here, so always false.
		return p.ID == s.OwnerID && p.IsAdmin
	case KindEvent, KindEventDepartment, KindEventCommittee, KindEventAttendee,
		KindEventAgenda, KindEventDocument:
		return p.ID == s.EventAuthorID
	case KindEventMinute, KindEventUserDocumentNote:
		return p.ID == s.EventAuthorID || p.ID == s.OwnerID
	default:
		return false
	}
}

// DeriveEvent computes delegated rights. d is nil when the principal is not
// an attendee.
func DeriveEvent(p Principal, eventAuthorID uint, d *Delegations) EventCapabilities {
	if p.IsAdmin || (p.ID != 0 && p.ID == eventAuthorID) {
		return EventCapabilities{ManageDocuments: true, ManageAgendas: true, ManageMinutes: true}
	}
	if d == nil {
		return EventCapabilities{}
	}
	return EventCapabilities{
		ManageDocuments: d.CanUpload,
		ManageAgendas:   d.ManageAgendas,
		ManageMinutes:   d.ManageMinutes,
	}
}

// OwnershipLookup loads the facts Derive needs.
type OwnershipLookup interface {
	// Subject returns ErrNotFound when no row has id.
	Subject(ctx context.Context, kind Kind, id uint) (Subject, error)
	// Delegations returns nil when userID is not enrolled in eventID.
	Delegations(ctx context.Context, eventID, userID uint) (*Delegations, error)
}

type Evaluator struct {
	lookup OwnershipLookup
}

func NewEvaluator(lookup OwnershipLookup) *Evaluator {
	return &Evaluator{lookup: lookup}
}

func (e *Evaluator) Resolve(ctx context.Context, kind Kind, id uint) (Subject, error) {
	s, err := e.lookup.Subject(ctx, kind, id)
	if err != nil {
		return Subject{}, fmt.Errorf("resolve %s %d: %w", kind, id, err)
	}
	return s, nil
}

func (e *Evaluator) Evaluate(ctx context.Context, p Principal, kind Kind, id uint) (Capabilities, error) {
	s, err := e.Resolve(ctx, kind, id)
	if err != nil {
		return Capabilities{}, err
	}
	return Derive(p, s), nil
}

func (e *Evaluator) EventCapabilities(ctx context.Context, p Principal, eventID uint) (EventCapabilities, error) {
	s, err := e.Resolve(ctx, KindEvent, eventID)
	if err != nil {
		return EventCapabilities{}, err
	}
	if p.IsAdmin || p.ID == s.EventAuthorID {
		return DeriveEvent(p, s.EventAuthorID, nil), nil
	}

	d, err := e.lookup.Delegations(ctx, eventID, p.ID)
	if err != nil {
		return EventCapabilities{}, fmt.Errorf("load delegations for event %d: %w", eventID, err)
	}
	return DeriveEvent(p, s.EventAuthorID, d), nil
}
