package services

import (
	"context"
	"strings"

	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

// Departments are called "Directorates" in every user-facing message.
const departmentLabel = "Directorate"

type DepartmentRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (r DepartmentRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("Name is required")
	}
	return nil
}

type DepartmentService struct {
	repo *repositories.DepartmentRepository
}

func NewDepartmentService(db *gorm.DB) *DepartmentService {
	return &DepartmentService{repo: repositories.NewDepartmentRepository(db)}
}

func (s *DepartmentService) Create(ctx context.Context, req DepartmentRequest) (*gormModels.Department, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	taken, err := s.repo.NameTaken(ctx, req.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, alreadyExists(departmentLabel)
	}

	d := &gormModels.Department{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, mapped(err, departmentLabel)
	}
	logging.Info("Department created", "department_id", d.ID, "name", d.Name)
	return d, nil
}

func (s *DepartmentService) Update(ctx context.Context, id uint, req DepartmentRequest) (*gormModels.Department, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapped(err, departmentLabel)
	}
	taken, err := s.repo.NameTaken(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, alreadyExists(departmentLabel)
	}

	d.Name = strings.TrimSpace(req.Name)
	d.Description = req.Description
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, mapped(err, departmentLabel)
	}
	return d, nil
}

func (s *DepartmentService) Delete(ctx context.Context, id uint) error {
	return mapped(s.repo.Delete(ctx, id), departmentLabel)
}

func (s *DepartmentService) SetActive(ctx context.Context, id uint, active bool) (*gormModels.Department, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, mapped(err, departmentLabel)
	}
	return s.Get(ctx, id)
}

func (s *DepartmentService) Get(ctx context.Context, id uint) (*gormModels.Department, error) {
	d, err := s.repo.GetByID(ctx, id)
	return d, mapped(err, departmentLabel)
}

func (s *DepartmentService) List(ctx context.Context, req repositories.PageRequest) (*repositories.Page[gormModels.Department], error) {
	return s.repo.List(ctx, req)
}

func (s *DepartmentService) AddUser(ctx context.Context, departmentID, userID uint) (*gormModels.UserDepartment, error) {
	link, err := s.repo.AddMember(ctx, departmentID, userID)
	if err != nil {
		return nil, mapped(err, "User Department")
	}
	return link, nil
}

func (s *DepartmentService) RemoveUser(ctx context.Context, departmentID, userID uint) error {
	return mapped(s.repo.RemoveMember(ctx, departmentID, userID), "User Department")
}

func (s *DepartmentService) Members(ctx context.Context, departmentID uint, req repositories.PageRequest) (*repositories.Page[gormModels.UserDepartment], error) {
	if _, err := s.Get(ctx, departmentID); err != nil {
		return nil, err
	}
	return s.repo.ListMemberships(ctx, departmentID, req)
}
