package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"meetings/boardroom/internal/db/repositories"
	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

// AgendaRequest describes an agenda item. Index is only read on update;
// new items always go last.
type AgendaRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Index       int        `json:"index"`
}

func (r AgendaRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return invalid("Title is required")
	}
	if r.StartTime != nil && r.EndTime != nil && !r.EndTime.After(*r.StartTime) {
		return invalid("End time must be after start time")
	}
	return nil
}

var errIndexOutOfRange = invalid("Index out of range")

type AgendaService struct {
	repo   *repositories.AgendaRepository
	events *repositories.EventRepository
}

func NewAgendaService(db *gorm.DB) *AgendaService {
	return &AgendaService{
		repo:   repositories.NewAgendaRepository(db),
		events: repositories.NewEventRepository(db),
	}
}

func (s *AgendaService) Create(ctx context.Context, eventID uint, req AgendaRequest) (*gormModels.EventAgenda, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := requireEvent(ctx, s.events, eventID); err != nil {
		return nil, err
	}
	taken, err := s.repo.TitleTaken(ctx, eventID, req.Title, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, alreadyExists("Event Agenda")
	}

	agenda := &gormModels.EventAgenda{
		EventID:     eventID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := s.repo.Append(ctx, agenda); err != nil {
		return nil, mapped(err, "Event Agenda")
	}
	return agenda, nil
}

// Update edits the item. A changed Index moves it, shifting the items in
// between.
func (s *AgendaService) Update(ctx context.Context, id uint, req AgendaRequest) (*gormModels.EventAgenda, error) {
	agenda, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	taken, err := s.repo.TitleTaken(ctx, agenda.EventID, req.Title, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, alreadyExists("Event Agenda")
	}

	agenda.Title = strings.TrimSpace(req.Title)
	agenda.Description = req.Description
	agenda.StartTime = req.StartTime
	agenda.EndTime = req.EndTime
	if err := s.repo.Update(ctx, agenda, req.Index); err != nil {
		if errors.Is(err, repositories.ErrOutOfRange) {
			return nil, errIndexOutOfRange
		}
		return nil, mapped(err, "Event Agenda")
	}
	return agenda, nil
}

func (s *AgendaService) Delete(ctx context.Context, id uint) (*gormModels.EventAgenda, error) {
	removed, err := s.repo.Remove(ctx, id)
	if err != nil {
		return nil, mapped(err, "Event Agenda")
	}
	return removed, nil
}

func (s *AgendaService) Get(ctx context.Context, id uint) (*gormModels.EventAgenda, error) {
	a, err := s.repo.GetByID(ctx, id)
	return a, mapped(err, "Event Agenda")
}

func (s *AgendaService) List(ctx context.Context, eventID uint, req repositories.PageRequest) (*repositories.Page[gormModels.EventAgenda], error) {
	if err := requireEvent(ctx, s.events, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListForEvent(ctx, eventID, req)
}

func requireEvent(ctx context.Context, events *repositories.EventRepository, eventID uint) error {
	ok, err := events.Exists(ctx, eventID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("Event")
	}
	return nil
}
