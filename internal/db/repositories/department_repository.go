package repositories

import (
	"context"
	"fmt"
	"strings"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(ctx context.Context, d *gormModels.Department) error {
	return translate(r.db.WithContext(ctx).Create(d).Error, "create department")
}

func (r *DepartmentRepository) Save(ctx context.Context, d *gormModels.Department) error {
	return translate(r.db.WithContext(ctx).Save(d).Error, "save department")
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id uint) (*gormModels.Department, error) {
	return findByID[gormModels.Department](ctx, r.db, id, "department")
}

func (r *DepartmentRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	return exists(ctx, r.db.Model(&gormModels.Department{}).
		Where("name_key = ? AND id <> ?", gormModels.NameKey(name), excludeID))
}

func (r *DepartmentRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &gormModels.Department{}, id)
}

func (r *DepartmentRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return setActive(ctx, r.db, &gormModels.Department{}, id, active)
}

func (r *DepartmentRepository) List(ctx context.Context, req PageRequest) (*Page[gormModels.Department], error) {
	q := r.db.Model(&gormModels.Department{})
	if req.Key != "" {
		q = q.Where("name_key LIKE ?", likeKey(strings.ToLower(req.Key)))
	}
	return paginate[gormModels.Department](ctx, q, req, "name, id")
}

func (r *DepartmentRepository) ListByIDs(ctx context.Context, ids []uint) ([]gormModels.Department, error) {
	var rows []gormModels.Department
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return rows, nil
}

// AddMember returns ErrDuplicate when the user is already a member.
func (r *DepartmentRepository) AddMember(ctx context.Context, departmentID, userID uint) (*gormModels.UserDepartment, error) {
	link := &gormModels.UserDepartment{UserID: userID, DepartmentID: departmentID}
	created, err := insertIgnore(ctx, r.db, link)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("add user %d to department %d: %w", userID, departmentID, ErrDuplicate)
	}
	return link, nil
}

// EnsureMember adds the membership when missing and is a no-op otherwise.
func (r *DepartmentRepository) EnsureMember(ctx context.Context, departmentID, userID uint) error {
	_, err := insertIgnore(ctx, r.db, &gormModels.UserDepartment{UserID: userID, DepartmentID: departmentID})
	return err
}

func (r *DepartmentRepository) RemoveMember(ctx context.Context, departmentID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("department_id = ? AND user_id = ?", departmentID, userID).
		Delete(&gormModels.UserDepartment{})
	if res.Error != nil {
		return translate(res.Error, "remove department member")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("remove user %d from department %d: %w", userID, departmentID, ErrNotFound)
	}
	return nil
}

func (r *DepartmentRepository) ListMemberships(ctx context.Context, departmentID uint, req PageRequest) (*Page[gormModels.UserDepartment], error) {
	q := r.db.Model(&gormModels.UserDepartment{}).Where("department_id = ?", departmentID)
	return paginate[gormModels.UserDepartment](ctx, q, req, "id", "User")
}
