package services

import (
	"context"
	"errors"
	"strings"

	"meetings/boardroom/internal/db/repositories"
	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type MinuteRequest struct {
	Content string `json:"content"`
	Index   int    `json:"index"`
}

type MinuteService struct {
	repo   *repositories.MinuteRepository
	events *repositories.EventRepository
}

func NewMinuteService(db *gorm.DB) *MinuteService {
	return &MinuteService{
		repo:   repositories.NewMinuteRepository(db),
		events: repositories.NewEventRepository(db),
	}
}

// Create appends a minute written by authorID.
func (s *MinuteService) Create(ctx context.Context, eventID, authorID uint, req MinuteRequest) (*gormModels.EventMinute, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, invalid("Content is required")
	}
	if err := requireEvent(ctx, s.events, eventID); err != nil {
		return nil, err
	}

	minute := &gormModels.EventMinute{EventID: eventID, AuthorID: authorID, Content: content}
	if err := s.repo.Append(ctx, minute); err != nil {
		return nil, mapped(err, "Event Minute")
	}
	return minute, nil
}

func (s *MinuteService) Update(ctx context.Context, id uint, req MinuteRequest) (*gormModels.EventMinute, error) {
	minute, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, invalid("Content is required")
	}

	minute.Content = content
	if err := s.repo.Update(ctx, minute, req.Index); err != nil {
		if errors.Is(err, repositories.ErrOutOfRange) {
			return nil, errIndexOutOfRange
		}
		return nil, mapped(err, "Event Minute")
	}
	return s.Get(ctx, id)
}

func (s *MinuteService) Delete(ctx context.Context, id uint) (*gormModels.EventMinute, error) {
	removed, err := s.repo.Remove(ctx, id)
	if err != nil {
		return nil, mapped(err, "Event Minute")
	}
	return removed, nil
}

func (s *MinuteService) Get(ctx context.Context, id uint) (*gormModels.EventMinute, error) {
	m, err := s.repo.GetByID(ctx, id)
	return m, mapped(err, "Event Minute")
}

func (s *MinuteService) List(ctx context.Context, eventID uint, req repositories.PageRequest) (*repositories.Page[gormModels.EventMinute], error) {
	if err := requireEvent(ctx, s.events, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListForEvent(ctx, eventID, req)
}
