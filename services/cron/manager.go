package cron

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/services/storage"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job names as recorded in cron_job_logs.
const (
	JobClearResetTokens = "clear_expired_reset_tokens"
	JobCleanupOldData   = "cleanup_old_data"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron    *cron.Cron
	db      *gorm.DB
	archive storage.Archive
	now     func() time.Time
}

// NewCronManager creates a new cron manager. archive may be nil, in which
// case pruned uploads only lose their database row.
func NewCronManager(db *gorm.DB, archive storage.Archive) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:    c,
		db:      db,
		archive: archive,
		now:     time.Now,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	slog.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()

	slog.Info("cron jobs started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running jobs to return.
func (m *CronManager) Stop() {
	slog.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	slog.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 15 minutes: drop reset tokens past their expiry
	if _, err := m.cron.AddFunc("0 */15 * * * *", func() {
		m.ClearExpiredResetTokens()
	}); err != nil {
		return err
	}

	// Daily at 3 AM: prune old uploads and job logs
	if _, err := m.cron.AddFunc("0 0 3 * * *", func() {
		m.CleanupOldData()
	}); err != nil {
		return err
	}
	return nil
}

// jobResult is what a job reports back to the run log.
type jobResult struct {
	message  string
	metadata map[string]interface{}
}

// run records a cron_job_logs row around fn and logs the outcome.
func (m *CronManager) run(jobName string, fn func() (jobResult, error)) {
	started := m.now()
	slog.Info("cron job started", "job", jobName)

	entry := model.CronJobLog{
		JobName:   jobName,
		Status:    model.JobRunning,
		StartedAt: started,
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(&entry).Error; err != nil {
		slog.Error("failed to record cron job start", "job", jobName, "error", err)
	}

	res, err := fn()

	completed := m.now()
	updates := map[string]interface{}{
		"completed_at": completed,
		"duration":     completed.Sub(started).Milliseconds(),
	}
	if res.metadata != nil {
		if raw, merr := json.Marshal(res.metadata); merr == nil {
			updates["metadata"] = datatypes.JSON(raw)
		}
	}
	if err != nil {
		updates["status"] = model.JobFailed
		updates["error_msg"] = err.Error()
		slog.Error("cron job failed", "job", jobName, "error", err)
	} else {
		updates["status"] = model.JobCompleted
		updates["message"] = res.message
		slog.Info("cron job completed", "job", jobName, "message", res.message)
	}

	if entry.ID == 0 {
		return
	}
	if uerr := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; uerr != nil {
		slog.Error("failed to record cron job result", "job", jobName, "error", uerr)
	}
}
