package repositories

import (
	"context"
	"fmt"
	"strings"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type CommitteeRepository struct {
	db *gorm.DB
}

func NewCommitteeRepository(db *gorm.DB) *CommitteeRepository {
	return &CommitteeRepository{db: db}
}

func (r *CommitteeRepository) Create(ctx context.Context, c *gormModels.Committee) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "create committee")
}

func (r *CommitteeRepository) Save(ctx context.Context, c *gormModels.Committee) error {
	return translate(r.db.WithContext(ctx).Save(c).Error, "save committee")
}

func (r *CommitteeRepository) GetByID(ctx context.Context, id uint) (*gormModels.Committee, error) {
	return findByID[gormModels.Committee](ctx, r.db, id, "committee")
}

func (r *CommitteeRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	return exists(ctx, r.db.Model(&gormModels.Committee{}).
		Where("name_key = ? AND id <> ?", gormModels.NameKey(name), excludeID))
}

func (r *CommitteeRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &gormModels.Committee{}, id)
}

func (r *CommitteeRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return setActive(ctx, r.db, &gormModels.Committee{}, id, active)
}

func (r *CommitteeRepository) List(ctx context.Context, req PageRequest) (*Page[gormModels.Committee], error) {
	q := r.db.Model(&gormModels.Committee{})
	if req.Key != "" {
		q = q.Where("name_key LIKE ?", likeKey(strings.ToLower(req.Key)))
	}
	return paginate[gormModels.Committee](ctx, q, req, "name, id")
}

func (r *CommitteeRepository) AddMember(ctx context.Context, committeeID, userID uint) (*gormModels.UserCommittee, error) {
	link := &gormModels.UserCommittee{UserID: userID, CommitteeID: committeeID}
	created, err := insertIgnore(ctx, r.db, link)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("add user %d to committee %d: %w", userID, committeeID, ErrDuplicate)
	}
	return link, nil
}

// RemoveMembership deletes a committee membership row by its own id.
func (r *CommitteeRepository) RemoveMembership(ctx context.Context, membershipID uint) error {
	return deleteByID(ctx, r.db, &gormModels.UserCommittee{}, membershipID)
}

func (r *CommitteeRepository) ListMemberships(ctx context.Context, committeeID uint, req PageRequest) (*Page[gormModels.UserCommittee], error) {
	q := r.db.Model(&gormModels.UserCommittee{}).Where("committee_id = ?", committeeID)
	return paginate[gormModels.UserCommittee](ctx, q, req, "id", "User")
}

func (r *CommitteeRepository) AddDepartment(ctx context.Context, committeeID, departmentID uint) (*gormModels.CommitteeDepartment, error) {
	link := &gormModels.CommitteeDepartment{CommitteeID: committeeID, DepartmentID: departmentID}
	created, err := insertIgnore(ctx, r.db, link)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("link committee %d to department %d: %w", committeeID, departmentID, ErrDuplicate)
	}
	return link, nil
}

func (r *CommitteeRepository) RemoveDepartment(ctx context.Context, committeeID, departmentID uint) error {
	res := r.db.WithContext(ctx).
		Where("committee_id = ? AND department_id = ?", committeeID, departmentID).
		Delete(&gormModels.CommitteeDepartment{})
	if res.Error != nil {
		return translate(res.Error, "unlink committee department")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("unlink committee %d from department %d: %w", committeeID, departmentID, ErrNotFound)
	}
	return nil
}

func (r *CommitteeRepository) Departments(ctx context.Context, committeeID uint) ([]gormModels.CommitteeDepartment, error) {
	var rows []gormModels.CommitteeDepartment
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("committee_id = ?", committeeID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list committee departments: %w", err)
	}
	return rows, nil
}
