// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var callbackSeq atomic.Int64

// Open returns a migrated in-memory SQLite database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.NewGORMStore(db).Init(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// FailCreates makes every INSERT into table fail with err until the
// returned func is called.
func FailCreates(t testing.TB, db *gorm.DB, table string, err error) (restore func()) {
	t.Helper()
	var on atomic.Bool
	on.Store(true)

	name := fmt.Sprintf("dbtest:fail_%s_%d", table, callbackSeq.Add(1))
	cbErr := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if on.Load() && tx.Statement.Table == table {
			tx.AddError(err)
		}
	})
	if cbErr != nil {
		t.Fatalf("register callback: %v", cbErr)
	}
	return func() { on.Store(false) }
}

// FailQueriesAfter lets the first skip SELECTs from table through and fails
// every later one with err.
func FailQueriesAfter(t testing.TB, db *gorm.DB, table string, skip int64, err error) {
	t.Helper()
	var seen atomic.Int64

	name := fmt.Sprintf("dbtest:fail_query_%s_%d", table, callbackSeq.Add(1))
	cbErr := db.Callback().Query().Before("gorm:query").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table && seen.Add(1) > skip {
			tx.AddError(err)
		}
	})
	if cbErr != nil {
		t.Fatalf("register callback: %v", cbErr)
	}
}

// SeedCollege inserts a college with the given program codes.
func SeedCollege(t testing.TB, db *gorm.DB, code string, programs ...string) model.College {
	t.Helper()
	college := model.College{Name: code + " College", Code: code}
	for _, p := range programs {
		college.Programs = append(college.Programs, model.Program{Name: p + " Program", Code: p})
	}
	if err := db.Create(&college).Error; err != nil {
		t.Fatalf("seed college %s: %v", code, err)
	}
	return college
}
