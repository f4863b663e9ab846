package jobs

import (
	"context"
	"time"

	"meetings/boardroom/internal/phone"
	"meetings/boardroom/internal/services"

	"gorm.io/gorm"
)

// InitializeJobs starts the background jobs that are configured. It
// returns nil when there is nothing to run.
func InitializeJobs(ctx context.Context, db *gorm.DB, phones *phone.Validator, directoryFile string) *DirectorySyncJob {
	if directoryFile == "" {
		return nil
	}
	job := NewDirectorySyncJob(directoryFile, services.NewDirectorySyncService(db, phones))
	go job.RunScheduled(ctx, time.Hour)
	return job
}
