package services

import (
	"context"
	"errors"
	"strings"

	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type CommitteeRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type CommitteeService struct {
	repo        *repositories.CommitteeRepository
	departments *repositories.DepartmentRepository
	users       *repositories.UserRepository
}

func NewCommitteeService(db *gorm.DB) *CommitteeService {
	return &CommitteeService{
		repo:        repositories.NewCommitteeRepository(db),
		departments: repositories.NewDepartmentRepository(db),
		users:       repositories.NewUserRepository(db),
	}
}

func (s *CommitteeService) Create(ctx context.Context, req CommitteeRequest) (*gormModels.Committee, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("Name is required")
	}
	taken, err := s.repo.NameTaken(ctx, req.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, alreadyExists("Committee")
	}

	c := &gormModels.Committee{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, mapped(err, "Committee")
	}
	logging.Info("Committee created", "committee_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *CommitteeService) Update(ctx context.Context, id uint, req CommitteeRequest) (*gormModels.Committee, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("Name is required")
	}
	taken, err := s.repo.NameTaken(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("Committee name already taken")
	}

	c.Name = strings.TrimSpace(req.Name)
	c.Description = req.Description
	if err := s.repo.Save(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, conflict("Committee name already taken")
		}
		return nil, mapped(err, "Committee")
	}
	return c, nil
}

func (s *CommitteeService) Delete(ctx context.Context, id uint) error {
	return mapped(s.repo.Delete(ctx, id), "Committee")
}

func (s *CommitteeService) SetActive(ctx context.Context, id uint, active bool) (*gormModels.Committee, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, mapped(err, "Committee")
	}
	return s.Get(ctx, id)
}

func (s *CommitteeService) Get(ctx context.Context, id uint) (*gormModels.Committee, error) {
	c, err := s.repo.GetByID(ctx, id)
	return c, mapped(err, "Committee")
}

func (s *CommitteeService) List(ctx context.Context, req repositories.PageRequest) (*repositories.Page[gormModels.Committee], error) {
	return s.repo.List(ctx, req)
}

func (s *CommitteeService) AddMember(ctx context.Context, committeeID, userID uint) (*gormModels.UserCommittee, error) {
	if _, err := s.Get(ctx, committeeID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, mapped(err, "User")
	}
	link, err := s.repo.AddMember(ctx, committeeID, userID)
	if err != nil {
		return nil, mapped(err, "Committee Member")
	}
	return link, nil
}

// RemoveMember deletes a membership by the membership row id.
func (s *CommitteeService) RemoveMember(ctx context.Context, membershipID uint) error {
	return mapped(s.repo.RemoveMembership(ctx, membershipID), "Committee Member")
}

func (s *CommitteeService) Members(ctx context.Context, committeeID uint, req repositories.PageRequest) (*repositories.Page[gormModels.UserCommittee], error) {
	if _, err := s.Get(ctx, committeeID); err != nil {
		return nil, err
	}
	return s.repo.ListMemberships(ctx, committeeID, req)
}

func (s *CommitteeService) AddDepartment(ctx context.Context, committeeID, departmentID uint) (*gormModels.CommitteeDepartment, error) {
	if _, err := s.Get(ctx, committeeID); err != nil {
		return nil, err
	}
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, mapped(err, "Department")
	}
	link, err := s.repo.AddDepartment(ctx, committeeID, departmentID)
	if err != nil {
		return nil, mapped(err, "Committee Department")
	}
	return link, nil
}

func (s *CommitteeService) RemoveDepartment(ctx context.Context, committeeID, departmentID uint) error {
	if _, err := s.Get(ctx, committeeID); err != nil {
		return err
	}
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return mapped(err, "Department")
	}
	return mapped(s.repo.RemoveDepartment(ctx, committeeID, departmentID), "Committee Department")
}

func (s *CommitteeService) Departments(ctx context.Context, committeeID uint) ([]gormModels.CommitteeDepartment, error) {
	if _, err := s.Get(ctx, committeeID); err != nil {
		return nil, err
	}
	return s.repo.Departments(ctx, committeeID)
}
