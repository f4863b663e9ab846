package repositories

import (
	"context"
	"fmt"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type AgendaRepository struct {
	db *gorm.DB
}

func NewAgendaRepository(db *gorm.DB) *AgendaRepository {
	return &AgendaRepository{db: db}
}

func (r *AgendaRepository) GetByID(ctx context.Context, id uint) (*gormModels.EventAgenda, error) {
	return findByID[gormModels.EventAgenda](ctx, r.db, id, "event agenda")
}

func (r *AgendaRepository) TitleTaken(ctx context.Context, eventID uint, title string, excludeID uint) (bool, error) {
	return exists(ctx, r.db.Model(&gormModels.EventAgenda{}).
		Where("event_id = ? AND title_key = ? AND id <> ?", eventID, gormModels.NameKey(title), excludeID))
}

// Append stores agenda as the last item of its event.
func (r *AgendaRepository) Append(ctx context.Context, agenda *gormModels.EventAgenda) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(ctx, tx, agenda.EventID); err != nil {
			return err
		}
		pos, err := nextPosition(ctx, tx, &gormModels.EventAgenda{}, agenda.EventID)
		if err != nil {
			return err
		}
		agenda.Index = pos
		return translate(tx.Create(agenda).Error, "create event agenda")
	})
}

// Update saves the row. A moveTo of zero keeps the stored position;
// anything else moves the row there first.
func (r *AgendaRepository) Update(ctx context.Context, agenda *gormModels.EventAgenda, moveTo int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(ctx, tx, agenda.EventID); err != nil {
			return err
		}
		current, err := findByID[gormModels.EventAgenda](ctx, tx, agenda.ID, "event agenda")
		if err != nil {
			return err
		}
		agenda.Index, err = reposition(ctx, tx, &gormModels.EventAgenda{}, agenda.EventID, current.Index, moveTo)
		if err != nil {
			return fmt.Errorf("agenda %d: %w", agenda.ID, err)
		}
		return translate(tx.Omit("Event").Save(agenda).Error, "save event agenda")
	})
}

// Remove deletes the agenda and closes the gap it leaves.
func (r *AgendaRepository) Remove(ctx context.Context, id uint) (*gormModels.EventAgenda, error) {
	var removed *gormModels.EventAgenda
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agenda, err := findByID[gormModels.EventAgenda](ctx, tx, id, "event agenda")
		if err != nil {
			return err
		}
		if err := lockEvent(ctx, tx, agenda.EventID); err != nil {
			return err
		}
		if err := deleteByID(ctx, tx, &gormModels.EventAgenda{}, id); err != nil {
			return err
		}
		removed = agenda
		return closeGap(ctx, tx, &gormModels.EventAgenda{}, agenda.EventID, agenda.Index)
	})
	return removed, err
}

func (r *AgendaRepository) ListForEvent(ctx context.Context, eventID uint, req PageRequest) (*Page[gormModels.EventAgenda], error) {
	q := r.db.Model(&gormModels.EventAgenda{}).Where("event_id = ?", eventID)
	return paginate[gormModels.EventAgenda](ctx, q, req, "position")
}
