package repositories

import (
	"context"
	"strings"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
)

type VenueRepository struct {
	db *gorm.DB
}

func NewVenueRepository(db *gorm.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) Create(ctx context.Context, v *gormModels.Venue) error {
	return translate(r.db.WithContext(ctx).Create(v).Error, "create venue")
}

func (r *VenueRepository) Save(ctx context.Context, v *gormModels.Venue) error {
	return translate(r.db.WithContext(ctx).Save(v).Error, "save venue")
}

func (r *VenueRepository) GetByID(ctx context.Context, id uint) (*gormModels.Venue, error) {
	return findByID[gormModels.Venue](ctx, r.db, id, "venue")
}

// Lock takes a row lock on the venue for the rest of the transaction so
// concurrent bookings of the same venue queue behind each other.
func (r *VenueRepository) Lock(ctx context.Context, id uint) (*gormModels.Venue, error) {
	return lockByID[gormModels.Venue](ctx, r.db, id, "venue")
}

func (r *VenueRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	return exists(ctx, r.db.Model(&gormModels.Venue{}).
		Where("name_key = ? AND id <> ?", gormModels.NameKey(name), excludeID))
}

func (r *VenueRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &gormModels.Venue{}, id)
}

func (r *VenueRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return setActive(ctx, r.db, &gormModels.Venue{}, id, active)
}

func (r *VenueRepository) List(ctx context.Context, req PageRequest) (*Page[gormModels.Venue], error) {
	q := r.db.Model(&gormModels.Venue{})
	if req.Key != "" {
		q = q.Where("name_key LIKE ?", likeKey(strings.ToLower(req.Key)))
	}
	return paginate[gormModels.Venue](ctx, q, req, "name, id")
}
