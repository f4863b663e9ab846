package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/phone"

	"gorm.io/gorm"
)

// DirectoryEntry is one person in the staff directory export.
type DirectoryEntry struct {
	FirstName  string  `json:"first_name"`
	MiddleName *string `json:"middle_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
}

type SyncReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// DirectorySyncService upserts users from a directory export keyed by
// email. Entries without an email or a valid phone are skipped.
type DirectorySyncService struct {
	db     *gorm.DB
	phones *phone.Validator
}

func NewDirectorySyncService(db *gorm.DB, phones *phone.Validator) *DirectorySyncService {
	return &DirectorySyncService{db: db, phones: phones}
}

func (s *DirectorySyncService) SyncFile(ctx context.Context, path string) (*SyncReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory file: %w", err)
	}
	defer f.Close()
	return s.Sync(ctx, f)
}

func (s *DirectorySyncService) Sync(ctx context.Context, r io.Reader) (*SyncReport, error) {
	var entries []DirectoryEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode directory: %w", err)
	}

	report := &SyncReport{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repositories.NewUserRepository(tx)
		for _, e := range entries {
			email := strings.ToLower(strings.TrimSpace(e.Email))
			normalized, err := s.phones.Normalize(e.Phone)
			if email == "" || err != nil {
				report.Skipped++
				continue
			}

			user, err := users.FindByEmail(ctx, email)
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				user = &gormModels.User{}
				report.Created++
			case err != nil:
				return err
			default:
				report.Updated++
			}

			user.FirstName = strings.TrimSpace(e.FirstName)
			user.MiddleName = e.MiddleName
			user.LastName = strings.TrimSpace(e.LastName)
			user.Email = &email
			user.Username = email
			user.Phone = &normalized
			if err := users.Save(ctx, user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info("Directory synced",
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped)
	return report, nil
}
