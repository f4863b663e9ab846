package services

import (
	"context"
	"errors"
	"strings"

	"meetings/boardroom/internal/db/repositories"
	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type VenueRequest struct {
	Name        string               `json:"name"`
	Description *string              `json:"description"`
	VenueType   gormModels.VenueType `json:"venue_type"`
	Capacity    int                  `json:"capacity"`
}

func (r VenueRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("Name is required")
	}
	if r.VenueType != "" && !r.VenueType.Valid() {
		return invalid("Invalid venue type")
	}
	if r.Capacity < 0 {
		return invalid("Capacity cannot be negative")
	}
	return nil
}

type VenueService struct {
	repo *repositories.VenueRepository
}

func NewVenueService(db *gorm.DB) *VenueService {
	return &VenueService{repo: repositories.NewVenueRepository(db)}
}

func (s *VenueService) Create(ctx context.Context, req VenueRequest) (*gormModels.Venue, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	taken, err := s.repo.NameTaken(ctx, req.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, alreadyExists("Venue")
	}

	v := &gormModels.Venue{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		VenueType:   req.VenueType,
		Capacity:    req.Capacity,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, mapped(err, "Venue")
	}
	return v, nil
}

func (s *VenueService) Update(ctx context.Context, id uint, req VenueRequest) (*gormModels.Venue, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	taken, err := s.repo.NameTaken(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, alreadyExists("Venue")
	}

	v.Name = strings.TrimSpace(req.Name)
	v.Description = req.Description
	v.Capacity = req.Capacity
	if req.VenueType != "" {
		v.VenueType = req.VenueType
	}
	if err := s.repo.Save(ctx, v); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, alreadyExists("Venue")
		}
		return nil, err
	}
	return v, nil
}

func (s *VenueService) Delete(ctx context.Context, id uint) (*gormModels.Venue, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, mapped(err, "Venue")
	}
	return v, nil
}

func (s *VenueService) SetActive(ctx context.Context, id uint, active bool) (*gormModels.Venue, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, mapped(err, "Venue")
	}
	return s.Get(ctx, id)
}

func (s *VenueService) Get(ctx context.Context, id uint) (*gormModels.Venue, error) {
	v, err := s.repo.GetByID(ctx, id)
	return v, mapped(err, "Venue")
}

func (s *VenueService) List(ctx context.Context, req repositories.PageRequest) (*repositories.Page[gormModels.Venue], error) {
	return s.repo.List(ctx, req)
}

func (s *VenueService) Types() []gormModels.VenueType {
	return gormModels.VenueTypes
}
