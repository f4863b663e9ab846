package repositories

import (
	"context"
	"fmt"
	"strings"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, e *gormModels.Event) error {
	return translate(r.db.WithContext(ctx).Create(e).Error, "create event")
}

func (r *EventRepository) Save(ctx context.Context, e *gormModels.Event) error {
	return translate(r.db.WithContext(ctx).Omit("Venue", "Author").Save(e).Error, "save event")
}

func (r *EventRepository) GetByID(ctx context.Context, id uint) (*gormModels.Event, error) {
	return findByID[gormModels.Event](ctx, r.db, id, "event", "Venue", "Author")
}

func (r *EventRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return exists(ctx, r.db.Model(&gormModels.Event{}).Where("id = ?", id))
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &gormModels.Event{}, id)
}

func (r *EventRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return setActive(ctx, r.db, &gormModels.Event{}, id, active)
}

// EventFilter narrows a listing. A non-nil IDs restricts to that set, so an
// empty slice yields an empty page.
type EventFilter struct {
	IDs      []uint
	AuthorID *uint
}

func (r *EventRepository) List(ctx context.Context, filter EventFilter, req PageRequest) (*Page[gormModels.Event], error) {
	q := r.db.Model(&gormModels.Event{})
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return NewPage[gormModels.Event](req, 0, nil), nil
		}
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.AuthorID != nil {
		q = q.Where("author_id = ?", *filter.AuthorID)
	}
	if req.Key != "" {
		q = q.Where("LOWER(title) LIKE ?", likeKey(strings.ToLower(req.Key)))
	}
	return paginate[gormModels.Event](ctx, q, req, "start_time DESC, id DESC", "Venue", "Author")
}

func (r *EventRepository) AddDepartment(ctx context.Context, eventID, departmentID uint) (*gormModels.EventDepartment, error) {
	link := &gormModels.EventDepartment{EventID: eventID, DepartmentID: departmentID}
	created, err := insertIgnore(ctx, r.db, link)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("link event %d to department %d: %w", eventID, departmentID, ErrDuplicate)
	}
	return link, nil
}

func (r *EventRepository) RemoveDepartment(ctx context.Context, eventID, departmentID uint) error {
	res := r.db.WithContext(ctx).
		Where("event_id = ? AND department_id = ?", eventID, departmentID).
		Delete(&gormModels.EventDepartment{})
	if res.Error != nil {
		return translate(res.Error, "unlink event department")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("unlink event %d from department %d: %w", eventID, departmentID, ErrNotFound)
	}
	return nil
}

func (r *EventRepository) AddCommittee(ctx context.Context, eventID, committeeID uint) (*gormModels.EventCommittee, error) {
	link := &gormModels.EventCommittee{EventID: eventID, CommitteeID: committeeID}
	created, err := insertIgnore(ctx, r.db, link)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("link event %d to committee %d: %w", eventID, committeeID, ErrDuplicate)
	}
	return link, nil
}

func (r *EventRepository) RemoveCommittee(ctx context.Context, eventID, committeeID uint) error {
	res := r.db.WithContext(ctx).
		Where("event_id = ? AND committee_id = ?", eventID, committeeID).
		Delete(&gormModels.EventCommittee{})
	if res.Error != nil {
		return translate(res.Error, "unlink event committee")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("unlink event %d from committee %d: %w", eventID, committeeID, ErrNotFound)
	}
	return nil
}

func (r *EventRepository) Departments(ctx context.Context, eventID uint) ([]gormModels.EventDepartment, error) {
	var rows []gormModels.EventDepartment
	err := r.db.WithContext(ctx).Preload("Department").Where("event_id = ?", eventID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list event departments: %w", err)
	}
	return rows, nil
}

func (r *EventRepository) Committees(ctx context.Context, eventID uint) ([]gormModels.EventCommittee, error) {
	var rows []gormModels.EventCommittee
	err := r.db.WithContext(ctx).Preload("Committee").Where("event_id = ?", eventID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list event committees: %w", err)
	}
	return rows, nil
}
