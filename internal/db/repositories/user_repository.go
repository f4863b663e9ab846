package repositories

import (
	"context"
	"fmt"
	"strings"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new GORM-based user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *gormModels.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "create user")
}

func (r *UserRepository) Save(ctx context.Context, user *gormModels.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error, "save user")
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*gormModels.User, error) {
	return findByID[gormModels.User](ctx, r.db, id, "user")
}

// GetActiveByID is what identity resolution uses; blocked users are treated
// as missing.
func (r *UserRepository) GetActiveByID(ctx context.Context, id uint) (*gormModels.User, error) {
	var user gormModels.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&user).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("load active user %d", id))
	}
	return &user, nil
}

// FindByLogin matches the identifier against username or email, trimmed
// and lowercased.
func (r *UserRepository) FindByLogin(ctx context.Context, identifier string) (*gormModels.User, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))

	var user gormModels.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ? OR LOWER(email) = ?", key, key).
		First(&user).Error
	if err != nil {
		return nil, translate(err, "load user by login")
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*gormModels.User, error) {
	var user gormModels.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translate(err, "load user by email")
	}
	return &user, nil
}

// EmailTaken checks case-insensitively, ignoring excludeID.
func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	return exists(ctx, r.db.Model(&gormModels.User{}).
		Where("LOWER(email) = ? AND id <> ?", strings.ToLower(strings.TrimSpace(email)), excludeID))
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &gormModels.User{}, id)
}

func (r *UserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return setActive(ctx, r.db, &gormModels.User{}, id, active)
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&gormModels.User{}).Where("id = ?", id).Update("hash_password", hash)
	if res.Error != nil {
		return translate(res.Error, "set password")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set password for user %d: %w", id, ErrNotFound)
	}
	return nil
}

// WithoutPassword lists active users that have never been issued credentials.
func (r *UserRepository) WithoutPassword(ctx context.Context) ([]gormModels.User, error) {
	var users []gormModels.User
	err := r.db.WithContext(ctx).
		Where("(hash_password IS NULL OR hash_password = '') AND is_active = ?", true).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users without password: %w", err)
	}
	return users, nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, ids []uint) ([]gormModels.User, error) {
	var users []gormModels.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// List filters on names, email and phone.
func (r *UserRepository) List(ctx context.Context, req PageRequest) (*Page[gormModels.User], error) {
	q := r.db.Model(&gormModels.User{})
	if req.Key != "" {
		k := likeKey(strings.ToLower(req.Key))
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", k, k, k, k)
	}
	return paginate[gormModels.User](ctx, q, req, "first_name, last_name, id")
}

// ListInDepartments pages through the members of any of the departments.
func (r *UserRepository) ListInDepartments(ctx context.Context, departmentIDs []uint, req PageRequest) (*Page[gormModels.User], error) {
	sub := r.db.Model(&gormModels.UserDepartment{}).Select("user_id").Where("department_id IN ?", departmentIDs)
	return ListUsers(ctx, r.db.Model(&gormModels.User{}).Where("id IN (?)", sub), req)
}

// ListUsers pages an already-filtered user query in the standard order.
func ListUsers(ctx context.Context, q *gorm.DB, req PageRequest) (*Page[gormModels.User], error) {
	if req.Key != "" {
		k := likeKey(strings.ToLower(req.Key))
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", k, k)
	}
	return paginate[gormModels.User](ctx, q, req, "first_name, last_name, id")
}
