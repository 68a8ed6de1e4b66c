package cron

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/usched/usched-api/database/dbtest"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/services/storage"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newManager(t *testing.T, archive storage.Archive) (*CronManager, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	m := NewCronManager(db, archive)
	m.now = func() time.Time { return fixedNow }
	return m, db
}

func ptr[T any](v T) *T { return &v }

func lastLog(t *testing.T, db *gorm.DB, job string) model.CronJobLog {
	t.Helper()
	var entry model.CronJobLog
	if err := db.Where("job_name = ?", job).Order("id DESC").First(&entry).Error; err != nil {
		t.Fatalf("no log for %s: %v", job, err)
	}
	return entry
}

func TestRegisterJobs(t *testing.T) {
	m, _ := newManager(t, nil)
	if err := m.registerJobs(); err != nil {
		t.Fatalf("registerJobs: %v", err)
	}
	if n := len(m.cron.Entries()); n != 2 {
		t.Fatalf("entries = %d, want 2", n)
	}
}

func TestClearExpiredResetTokens(t *testing.T) {
	m, db := newManager(t, nil)

	users := []model.User{
		{RefID: 1, UserType: model.IdentityAdmin, Email: "expired@x.edu", PasswordHash: "h", Role: model.RoleAdmin, Status: model.StatusActive,
			ResetToken: ptr("old"), ResetExpires: ptr(fixedNow.Add(-time.Minute))},
		{RefID: 2, UserType: model.IdentityAdmin, Email: "valid@x.edu", PasswordHash: "h", Role: model.RoleAdmin, Status: model.StatusActive,
			ResetToken: ptr("fresh"), ResetExpires: ptr(fixedNow.Add(30 * time.Minute))},
		{RefID: 3, UserType: model.IdentityAdmin, Email: "none@x.edu", PasswordHash: "h", Role: model.RoleAdmin, Status: model.StatusActive},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}

	m.ClearExpiredResetTokens()

	var expired, valid model.User
	db.First(&expired, users[0].ID)
	db.First(&valid, users[1].ID)
	if expired.ResetToken != nil || expired.ResetExpires != nil {
		t.Errorf("expired token kept: %+v", expired)
	}
	if valid.ResetToken == nil || *valid.ResetToken != "fresh" {
		t.Errorf("valid token cleared: %+v", valid)
	}

	entry := lastLog(t, db, JobClearResetTokens)
	if entry.Status != model.JobCompleted || entry.CompletedAt == nil {
		t.Fatalf("unexpected log %+v", entry)
	}
	var meta map[string]int
	if err := json.Unmarshal(entry.Metadata, &meta); err != nil || meta["cleared"] != 1 {
		t.Errorf("metadata = %s (%v)", entry.Metadata, err)
	}
}

type failingArchive struct{ err error }

func (f failingArchive) Put(context.Context, string, []byte, string) error { return f.err }
func (f failingArchive) Delete(context.Context, string) error              { return f.err }

func seedUpload(t *testing.T, db *gorm.DB, program model.Program, id, key string, created time.Time) {
	t.Helper()
	up := model.CurriculumUpload{
		ID:         id,
		CollegeID:  program.CollegeID,
		ProgramID:  program.ID,
		Filename:   "curriculum.csv",
		FileType:   "csv",
		ArchiveKey: key,
		CreatedAt:  created,
	}
	if err := db.Create(&up).Error; err != nil {
		t.Fatalf("seed upload: %v", err)
	}
}

func TestCleanupOldData(t *testing.T) {
	dir := t.TempDir()
	archive, err := storage.NewLocalArchive(dir)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	m, db := newManager(t, archive)
	program := dbtest.SeedCollege(t, db, "CCS", "BSCS").Programs[0]

	ctx := context.Background()
	for _, key := range []string{"curriculum/bscs/old.csv", "curriculum/bscs/new.csv"} {
		if err := archive.Put(ctx, key, []byte("data"), "text/csv"); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	seedUpload(t, db, program, "old", "curriculum/bscs/old.csv", fixedNow.Add(-UploadRetention-time.Hour))
	seedUpload(t, db, program, "new", "curriculum/bscs/new.csv", fixedNow.Add(-time.Hour))

	stale := model.CronJobLog{JobName: "x", Status: model.JobCompleted, StartedAt: fixedNow.Add(-LogRetention - time.Hour)}
	recent := model.CronJobLog{JobName: "x", Status: model.JobCompleted, StartedAt: fixedNow.Add(-time.Hour)}
	db.Create(&stale)
	db.Create(&recent)

	m.CleanupOldData()

	var ids []string
	db.Model(&model.CurriculumUpload{}).Pluck("id", &ids)
	if len(ids) != 1 || ids[0] != "new" {
		t.Errorf("remaining uploads = %v, want [new]", ids)
	}
	if _, err := os.Stat(filepath.Join(dir, "curriculum", "bscs", "old.csv")); !os.IsNotExist(err) {
		t.Errorf("old archive file still present: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "curriculum", "bscs", "new.csv")); err != nil {
		t.Errorf("new archive file removed: %v", err)
	}

	var n int64
	db.Model(&model.CronJobLog{}).Where("id = ?", stale.ID).Count(&n)
	if n != 0 {
		t.Error("stale job log not pruned")
	}
	db.Model(&model.CronJobLog{}).Where("id = ?", recent.ID).Count(&n)
	if n != 1 {
		t.Error("recent job log pruned")
	}

	if entry := lastLog(t, db, JobCleanupOldData); entry.Status != model.JobCompleted {
		t.Errorf("status = %q", entry.Status)
	}
}

func TestCleanupOldDataKeepsRowWhenArchiveFails(t *testing.T) {
	m, db := newManager(t, failingArchive{err: errors.New("bucket unreachable")})
	program := dbtest.SeedCollege(t, db, "CCS", "BSCS").Programs[0]
	seedUpload(t, db, program, "old", "curriculum/bscs/old.csv", fixedNow.Add(-UploadRetention-time.Hour))

	m.CleanupOldData()

	var n int64
	db.Model(&model.CurriculumUpload{}).Count(&n)
	if n != 1 {
		t.Fatalf("upload row removed despite archive failure")
	}
	entry := lastLog(t, db, JobCleanupOldData)
	var meta map[string]int
	if err := json.Unmarshal(entry.Metadata, &meta); err != nil || meta["archive_failures"] != 1 {
		t.Errorf("metadata = %s (%v)", entry.Metadata, err)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	m, db := newManager(t, nil)
	m.run("broken", func() (jobResult, error) {
		return jobResult{}, errors.New("boom")
	})

	entry := lastLog(t, db, "broken")
	if entry.Status != model.JobFailed || entry.ErrorMsg != "boom" {
		t.Errorf("unexpected log %+v", entry)
	}
}
