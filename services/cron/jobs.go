package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/usched/usched-api/model"
)

// Retention windows for CleanupOldData.
const (
	UploadRetention = 180 * 24 * time.Hour
	LogRetention    = 30 * 24 * time.Hour
)

// ClearExpiredResetTokens nulls out password reset tokens whose expiry has
// passed. Runs every 15 minutes.
func (m *CronManager) ClearExpiredResetTokens() {
	m.run(JobClearResetTokens, func() (jobResult, error) {
		res := m.db.Model(&model.User{}).
			Where("reset_expires IS NOT NULL AND reset_expires < ?", m.now()).
			Updates(map[string]interface{}{"reset_token": nil, "reset_expires": nil})
		if res.Error != nil {
			return jobResult{}, fmt.Errorf("failed to clear reset tokens: %w", res.Error)
		}
		return jobResult{
			message:  fmt.Sprintf("Cleared %d expired reset tokens", res.RowsAffected),
			metadata: map[string]interface{}{"cleared": res.RowsAffected},
		}, nil
	})
}

// CleanupOldData removes upload history past UploadRetention, together with
// the archived files, and job logs past LogRetention. Runs daily at 3 AM.
func (m *CronManager) CleanupOldData() {
	m.run(JobCleanupOldData, func() (jobResult, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		now := m.now()

		var uploads []model.CurriculumUpload
		if err := m.db.Where("created_at < ?", now.Add(-UploadRetention)).Find(&uploads).Error; err != nil {
			return jobResult{}, fmt.Errorf("failed to query old uploads: %w", err)
		}

		removedUploads, archiveFailures := 0, 0
		for _, up := range uploads {
			if up.ArchiveKey != "" && m.archive != nil {
				if err := m.archive.Delete(ctx, up.ArchiveKey); err != nil {
					// keep the row so the next run retries the file
					slog.Warn("failed to delete archived upload", "upload_id", up.ID, "key", up.ArchiveKey, "error", err)
					archiveFailures++
					continue
				}
			}
			if err := m.db.Delete(&up).Error; err != nil {
				slog.Warn("failed to delete upload record", "upload_id", up.ID, "error", err)
				continue
			}
			removedUploads++
		}

		res := m.db.Where("started_at < ?", now.Add(-LogRetention)).Delete(&model.CronJobLog{})
		if res.Error != nil {
			return jobResult{}, fmt.Errorf("failed to prune job logs: %w", res.Error)
		}

		return jobResult{
			message: fmt.Sprintf("Removed %d uploads and %d job logs", removedUploads, res.RowsAffected),
			metadata: map[string]interface{}{
				"uploads_removed":  removedUploads,
				"archive_failures": archiveFailures,
				"logs_removed":     res.RowsAffected,
			},
		}, nil
	})
}
