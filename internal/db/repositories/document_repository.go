package repositories

import (
	"context"
	"fmt"
	"strings"

	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *gormModels.EventDocument) error {
	return translate(r.db.WithContext(ctx).Create(doc).Error, "create event document")
}

func (r *DocumentRepository) Save(ctx context.Context, doc *gormModels.EventDocument) error {
	return translate(r.db.WithContext(ctx).Omit("Event", "Author").Save(doc).Error, "save event document")
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uint) (*gormModels.EventDocument, error) {
	return findByID[gormModels.EventDocument](ctx, r.db, id, "event document", "Author")
}

func (r *DocumentRepository) TitleTaken(ctx context.Context, eventID uint, title string, excludeID uint) (bool, error) {
	return exists(ctx, r.db.Model(&gormModels.EventDocument{}).
		Where("event_id = ? AND title_key = ? AND id <> ?", eventID, gormModels.NameKey(title), excludeID))
}

func (r *DocumentRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &gormModels.EventDocument{}, id)
}

// RestrictTo scopes the document to a department; repeats are ignored.
func (r *DocumentRepository) RestrictTo(ctx context.Context, documentID, departmentID uint) error {
	_, err := insertIgnore(ctx, r.db, &gormModels.EventDocumentDepartment{
		EventDocumentID: documentID,
		DepartmentID:    departmentID,
	})
	return err
}

func (r *DocumentRepository) DepartmentIDs(ctx context.Context, documentID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&gormModels.EventDocumentDepartment{}).
		Where("event_document_id = ?", documentID).
		Order("department_id").
		Pluck("department_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list document departments: %w", err)
	}
	return ids, nil
}

func (r *DocumentRepository) ListForEvent(ctx context.Context, eventID uint, req PageRequest) (*Page[gormModels.EventDocument], error) {
	q := r.db.Model(&gormModels.EventDocument{}).Where("event_id = ?", eventID)
	if req.Key != "" {
		q = q.Where("title_key LIKE ?", likeKey(strings.ToLower(req.Key)))
	}
	return paginate[gormModels.EventDocument](ctx, q, req, "id", "Author")
}

// UpsertNote keeps exactly one note per (document, user).
func (r *DocumentRepository) UpsertNote(ctx context.Context, note *gormModels.EventUserDocumentNote) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_document_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"note", "updated"}),
	}).Create(note).Error
	if err != nil {
		return translate(err, "save document note")
	}
	return nil
}

func (r *DocumentRepository) FindNote(ctx context.Context, documentID, userID uint) (*gormModels.EventUserDocumentNote, error) {
	var note gormModels.EventUserDocumentNote
	err := r.db.WithContext(ctx).
		Where("event_document_id = ? AND user_id = ?", documentID, userID).
		First(&note).Error
	if err != nil {
		return nil, translate(err, "load document note")
	}
	return &note, nil
}
