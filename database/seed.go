package database

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/usched/usched-api/config"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/utils/auth"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBuildings are created on first start.
var DefaultBuildings = []string{model.BuildingMain, model.BuildingBagongCabuyao}

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs every seed step. Each step is idempotent.
func (s *Seeder) SeedAll(admin config.BootstrapAdmin) error {
	if err := s.SeedBuildings(); err != nil {
		return fmt.Errorf("failed to seed buildings: %w", err)
	}
	if err := s.SeedAdmin(admin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	return nil
}

// SeedBuildings inserts the default buildings that are not there yet.
func (s *Seeder) SeedBuildings() error {
	for _, name := range DefaultBuildings {
		b := model.Building{Name: name}
		res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&b)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			slog.Info("seeded building", "name", name)
		}
	}
	return nil
}

// SeedAdmin creates the bootstrap admin and its account when both email and
// password are configured and no account with that email exists.
func (s *Seeder) SeedAdmin(cfg config.BootstrapAdmin) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		slog.Info("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping bootstrap admin")
		return nil
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		slog.Info("bootstrap admin already exists", "email", email)
		return nil
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		admin := model.Admin{
			FirstName:    cfg.FirstName,
			LastName:     cfg.LastName,
			Email:        email,
			PasswordHash: hash,
			Status:       model.StatusActive,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		user := model.NewUser(model.AdminRef(admin.ID), email, hash, model.RoleAdmin, model.StatusActive)
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		slog.Info("seeded bootstrap admin", "email", email)
		return nil
	})
}
