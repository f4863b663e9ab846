package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"meetings/boardroom/internal/attendees"
	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/storage"

	"gorm.io/gorm"
)

type DocumentRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	// DepartmentID restricts the document to one department and invites
	// that department to the event.
	DepartmentID *uint `json:"department_id"`
}

// Upload is a file received with a document request.
type Upload struct {
	Name string
	Body io.Reader
}

type DocumentService struct {
	db       *gorm.DB
	repo     *repositories.DocumentRepository
	events   *repositories.EventRepository
	expander *attendees.Expander
	store    storage.ObjectStore
}

func NewDocumentService(db *gorm.DB, store storage.ObjectStore) *DocumentService {
	return &DocumentService{
		db:       db,
		repo:     repositories.NewDocumentRepository(db),
		events:   repositories.NewEventRepository(db),
		expander: attendees.NewExpander(db, nil),
		store:    store,
	}
}

func (s *DocumentService) Create(ctx context.Context, eventID, authorID uint, req DocumentRequest, file Upload) (*gormModels.EventDocument, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, invalid("Title is required")
	}
	if file.Body == nil {
		return nil, invalid("File is required")
	}
	if err := requireEvent(ctx, s.events, eventID); err != nil {
		return nil, err
	}
	taken, err := s.repo.TitleTaken(ctx, eventID, req.Title, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, alreadyExists("Event Document")
	}
	if req.DepartmentID != nil {
		if _, err := repositories.NewDepartmentRepository(s.db).GetByID(ctx, *req.DepartmentID); err != nil {
			return nil, mapped(err, "Department")
		}
	}

	ref, err := s.store.Put(ctx, file.Name, file.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &gormModels.EventDocument{
		EventID:     eventID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		File:        ref,
		AuthorID:    &authorID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		docs := repositories.NewDocumentRepository(tx)
		if err := docs.Create(ctx, doc); err != nil {
			return err
		}
		if req.DepartmentID == nil {
			return nil
		}
		if err := docs.RestrictTo(ctx, doc.ID, *req.DepartmentID); err != nil {
			return err
		}
		_, err := s.expander.WithTx(tx).Expand(ctx, eventID, []uint{*req.DepartmentID}, nil)
		return attendeeFailure(err)
	})
	if err != nil {
		s.discard(ctx, ref)
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, alreadyExists("Event Document")
		}
		return nil, err
	}

	logging.Info("Event document uploaded", "event_id", eventID, "document_id", doc.ID, "file", ref)
	return doc, nil
}

// Update edits the document and replaces its file when one is given.
func (s *DocumentService) Update(ctx context.Context, id uint, req DocumentRequest, file *Upload) (*gormModels.EventDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, invalid("Title is required")
	}
	taken, err := s.repo.TitleTaken(ctx, doc.EventID, req.Title, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, alreadyExists("Event Document")
	}

	old := doc.File
	if file != nil && file.Body != nil {
		ref, err := s.store.Put(ctx, file.Name, file.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to store document: %w", err)
		}
		doc.File = ref
	}
	doc.Title = strings.TrimSpace(req.Title)
	doc.Description = req.Description

	if err := s.repo.Save(ctx, doc); err != nil {
		if doc.File != old {
			s.discard(ctx, doc.File)
		}
		return nil, mapped(err, "Event Document")
	}
	if doc.File != old {
		s.discard(ctx, old)
	}
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapped(err, "Event Document")
	}
	s.discard(ctx, doc.File)
	return nil
}

func (s *DocumentService) Get(ctx context.Context, id uint) (*gormModels.EventDocument, error) {
	d, err := s.repo.GetByID(ctx, id)
	return d, mapped(err, "Event Document")
}

func (s *DocumentService) List(ctx context.Context, eventID uint, req repositories.PageRequest) (*repositories.Page[gormModels.EventDocument], error) {
	if err := requireEvent(ctx, s.events, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListForEvent(ctx, eventID, req)
}

// Open streams the stored file of document id.
func (s *DocumentService) Open(ctx context.Context, id uint) (*gormModels.EventDocument, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, doc.File)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document %d: %w", id, err)
	}
	return doc, rc, nil
}

// UpsertNote stores the user's note on a document, replacing any earlier
// one.
func (s *DocumentService) UpsertNote(ctx context.Context, documentID, userID uint, text string) (*gormModels.EventUserDocumentNote, error) {
	if _, err := s.repo.GetByID(ctx, documentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("Document")
		}
		return nil, err
	}
	note := &gormModels.EventUserDocumentNote{EventDocumentID: documentID, UserID: userID, Note: text}
	if err := s.repo.UpsertNote(ctx, note); err != nil {
		return nil, err
	}
	return s.repo.FindNote(ctx, documentID, userID)
}

func (s *DocumentService) Note(ctx context.Context, documentID, userID uint) (*gormModels.EventUserDocumentNote, error) {
	n, err := s.repo.FindNote(ctx, documentID, userID)
	return n, mapped(err, "Document Note")
}

func (s *DocumentService) discard(ctx context.Context, ref string) {
	if err := s.store.Delete(ctx, ref); err != nil {
		logging.Warn("Failed to delete stored document", "file", ref, "error", err)
	}
}
