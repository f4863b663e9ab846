package jobs

import (
	"context"
	"fmt"
	"os"
	"time"

	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/services"
)

// DirectorySyncer is the service the job drives.
type DirectorySyncer interface {
	SyncFile(ctx context.Context, path string) (*services.SyncReport, error)
}

// DirectorySyncJob re-imports the staff directory export whenever the file
// changes on disk.
type DirectorySyncJob struct {
	path     string
	syncer   DirectorySyncer
	lastSeen time.Time
}

func NewDirectorySyncJob(path string, syncer DirectorySyncer) *DirectorySyncJob {
	return &DirectorySyncJob{path: path, syncer: syncer}
}

// Run syncs the file unless it is unchanged since the last successful run.
// It returns a nil report when the run was skipped.
func (j *DirectorySyncJob) Run(ctx context.Context) (*services.SyncReport, error) {
	info, err := os.Stat(j.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat directory file: %w", err)
	}
	if !info.ModTime().After(j.lastSeen) {
		logging.Debug("Directory file unchanged, skipping sync", "path", j.path)
		return nil, nil
	}

	start := time.Now()
	report, err := j.syncer.SyncFile(ctx, j.path)
	if err != nil {
		return nil, err
	}
	j.lastSeen = info.ModTime()
	logging.Info("Directory sync finished",
		"path", j.path,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"duration", time.Since(start))
	return report, nil
}

// RunScheduled runs once immediately and then every interval until ctx is
// cancelled.
func (j *DirectorySyncJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := j.Run(ctx); err != nil {
		logging.Error("Directory sync failed", "error", err)
	}
	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				logging.Error("Directory sync failed", "error", err)
			}
		case <-ctx.Done():
			logging.Info("Directory sync job shutting down")
			return
		}
	}
}
