package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/membership"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/phone"

	"gorm.io/gorm"
)

type UserRequest struct {
	FirstName     string  `json:"first_name"`
	MiddleName    *string `json:"middle_name"`
	LastName      string  `json:"last_name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	IsAdmin       bool    `json:"is_admin"`
	IsStaff       bool    `json:"is_staff"`
	DepartmentIDs []uint  `json:"department_ids"`
}

// PrincipalInvalidator drops cached identities after role or status
// changes.
type PrincipalInvalidator interface {
	Invalidate(userID uint)
}

type UserService struct {
	db          *gorm.DB
	repo        *repositories.UserRepository
	phones      *phone.Validator
	invalidator PrincipalInvalidator
}

func NewUserService(db *gorm.DB, phones *phone.Validator, invalidator PrincipalInvalidator) *UserService {
	return &UserService{
		db:          db,
		repo:        repositories.NewUserRepository(db),
		phones:      phones,
		invalidator: invalidator,
	}
}

func (s *UserService) forget(id uint) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(id)
	}
}

// apply validates req and copies it onto u. excludeID skips u itself in
// the email uniqueness check.
func (s *UserService) apply(ctx context.Context, u *gormModels.User, req UserRequest, excludeID uint) error {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return invalid("First and last name are required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" {
		taken, err := s.repo.EmailTaken(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return alreadyExists("User")
		}
	}

	normalized, err := s.phones.Normalize(req.Phone)
	if err != nil {
		return invalid("Invalid Phone Number")
	}

	u.FirstName = strings.TrimSpace(req.FirstName)
	u.MiddleName = req.MiddleName
	u.LastName = strings.TrimSpace(req.LastName)
	u.Phone = &normalized
	u.IsAdmin = req.IsAdmin
	u.IsStaff = req.IsStaff
	if email != "" {
		u.Email = &email
		u.Username = email
	} else {
		u.Email = nil
		u.Username = normalized
	}
	return nil
}

// Create stores the user and enrolls it in every listed department.
func (s *UserService) Create(ctx context.Context, req UserRequest) (*gormModels.User, error) {
	u := &gormModels.User{}
	if err := s.apply(ctx, u, req, 0); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repositories.NewUserRepository(tx).Create(ctx, u); err != nil {
			return err
		}
		departments := repositories.NewDepartmentRepository(tx)
		for _, id := range req.DepartmentIDs {
			if _, err := departments.GetByID(ctx, id); err != nil {
				return mapped(err, "Department")
			}
			if err := departments.EnsureMember(ctx, id, u.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, alreadyExists("User")
		}
		return nil, err
	}

	logging.Info("User created", "user_id", u.ID, "departments", req.DepartmentIDs)
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id uint, req UserRequest) (*gormModels.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, u, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, alreadyExists("User")
		}
		return nil, err
	}
	s.forget(id)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) (*gormModels.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, mapped(err, "User")
	}
	s.forget(id)
	return u, nil
}

func (s *UserService) SetActive(ctx context.Context, id uint, active bool) (*gormModels.User, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, mapped(err, "User")
	}
	s.forget(id)
	return s.Get(ctx, id)
}

func (s *UserService) Get(ctx context.Context, id uint) (*gormModels.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	return u, mapped(err, "User")
}

func (s *UserService) List(ctx context.Context, req repositories.PageRequest) (*repositories.Page[gormModels.User], error) {
	return s.repo.List(ctx, req)
}

// UserProfile is a user together with the groups it belongs to.
type UserProfile struct {
	User        *gormModels.User        `json:"user"`
	Departments []gormModels.Department `json:"departments"`
	Committees  []gormModels.Committee  `json:"committees"`
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, userID uint) (*UserProfile, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	ix := membership.New(s.db)
	deptIDs, err := ix.DepartmentsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	committeeIDs, err := ix.CommitteesOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &UserProfile{User: u, Committees: []gormModels.Committee{}}
	if profile.Departments, err = repositories.NewDepartmentRepository(s.db).ListByIDs(ctx, deptIDs); err != nil {
		return nil, err
	}
	if len(committeeIDs) > 0 {
		err = s.db.WithContext(ctx).Where("id IN ?", committeeIDs).Order("name").Find(&profile.Committees).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load committees: %w", err)
		}
	}
	return profile, nil
}
