// Package identity provisions professors and administrators together with
// their login accounts.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/utils/auth"
	"github.com/usched/usched-api/utils/crypto"
	"github.com/usched/usched-api/utils/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mailer delivers account notifications. *services.EmailService satisfies it.
type Mailer interface {
	SendAccountCredentials(toEmail, userName, password string) error
}

// Service owns every write that spans an identity row and its account.
type Service struct {
	db        *gorm.DB
	mailer    Mailer
	validator *validation.Validator
}

// NewService creates the service. mailer may be nil, in which case
// credentials are never sent.
func NewService(db *gorm.DB, mailer Mailer) *Service {
	return &Service{
		db:        db,
		mailer:    mailer,
		validator: validation.NewValidator(),
	}
}

// Provisioned is the outcome of a professor create or update.
type Provisioned struct {
	Professor *model.Professor `json:"professor"`
	User      *model.User      `json:"user,omitempty"`
	// CredentialsSent is false when a new account was created but its
	// credential mail could not be delivered.
	CredentialsSent bool `json:"credentials_sent"`

	credential string
}

// CreateProfessor validates in and writes the professor, its availability
// and, when an email is given, its account in one transaction. The initial
// credential is mailed after commit.
func (s *Service) CreateProfessor(ctx context.Context, in ProfessorInput) (*Provisioned, error) {
	in.normalize()
	if err := s.validator.Check(&in); err != nil {
		return nil, err
	}
	return s.createProfessor(ctx, in)
}

// CreateDeanChair is CreateProfessor for the two management positions.
// An email is mandatory because the account is the point of the record.
func (s *Service) CreateDeanChair(ctx context.Context, in ProfessorInput) (*Provisioned, error) {
	in.normalize()
	if err := s.checkDeanChair(&in); err != nil {
		return nil, err
	}
	return s.createProfessor(ctx, in)
}

func (s *Service) checkDeanChair(in *ProfessorInput) error {
	err := s.validator.Check(in)
	var missing *validation.MissingFieldsError
	if in.Email == "" {
		if errors.As(err, &missing) {
			missing.Fields = appendSorted(missing.Fields, "email")
			return missing
		}
		return &validation.MissingFieldsError{Fields: []string{"email"}}
	}
	if err != nil {
		return err
	}
	if role := model.RoleForPosition(in.Position); role != model.RoleDean && role != model.RoleChair {
		return ErrInvalidPosition
	}
	return nil
}

func (s *Service) createProfessor(ctx context.Context, in ProfessorInput) (*Provisioned, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireCollege(db, in.CollegeID); err != nil {
		return nil, err
	}

	out := &Provisioned{Professor: &model.Professor{}}
	in.apply(out.Professor)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(out.Professor).Error; err != nil {
			return fmt.Errorf("insert professor: %w", err)
		}

		if in.Availability != nil {
			avail := in.Availability.model(out.Professor.ID)
			if err := tx.Create(&avail).Error; err != nil {
				return fmt.Errorf("insert availability: %w", err)
			}
			out.Professor.Availability = &avail
		}

		if in.Email == "" {
			return nil
		}
		user, credential, err := s.insertAccount(tx, model.ProfessorRef(out.Professor.ID), in.Email,
			model.RoleForPosition(in.Position), in.Status)
		if err != nil {
			return err
		}
		out.User, out.credential = user, credential
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("professor created", "professor_id", out.Professor.ID, "account", out.User != nil)
	s.deliverCredential(out)
	return out, nil
}

// UpdateProfessor edits the professor with the given id.
func (s *Service) UpdateProfessor(ctx context.Context, professorID uint, in ProfessorInput) (*Provisioned, error) {
	in.normalize()
	if err := s.validator.Check(&in); err != nil {
		return nil, err
	}
	return s.updateProfessor(ctx, func(tx *gorm.DB) (*model.Professor, error) {
		return findProfessor(tx, professorID)
	}, in)
}

// UpdateProfessorAccount edits the professor behind account userID.
func (s *Service) UpdateProfessorAccount(ctx context.Context, userID uint, in ProfessorInput) (*Provisioned, error) {
	in.normalize()
	if err := s.validator.Check(&in); err != nil {
		return nil, err
	}
	return s.updateProfessor(ctx, professorForAccount(userID), in)
}

// UpdateDeanChair is UpdateProfessorAccount with the dean/chair rules.
func (s *Service) UpdateDeanChair(ctx context.Context, userID uint, in ProfessorInput) (*Provisioned, error) {
	in.normalize()
	if err := s.checkDeanChair(&in); err != nil {
		return nil, err
	}
	return s.updateProfessor(ctx, professorForAccount(userID), in)
}

func professorForAccount(userID uint) func(tx *gorm.DB) (*model.Professor, error) {
	return func(tx *gorm.DB) (*model.Professor, error) {
		var user model.User
		err := tx.Where("user_id = ? AND user_type = ?", userID, model.IdentityProfessor).First(&user).Error
		if err != nil {
			if database.IsNotFound(err) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return findProfessor(tx, user.RefID)
	}
}

func (s *Service) updateProfessor(ctx context.Context, locate func(*gorm.DB) (*model.Professor, error), in ProfessorInput) (*Provisioned, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireCollege(db, in.CollegeID); err != nil {
		return nil, err
	}

	out := &Provisioned{}
	err := db.Transaction(func(tx *gorm.DB) error {
		prof, err := locate(tx)
		if err != nil {
			return err
		}
		in.apply(prof)
		if err := tx.Omit(clause.Associations).Save(prof).Error; err != nil {
			return fmt.Errorf("update professor: %w", err)
		}
		out.Professor = prof

		if in.Availability != nil {
			avail, err := upsertAvailability(tx, prof.ID, in.Availability)
			if err != nil {
				return err
			}
			prof.Availability = avail
		}

		user, credential, err := s.upsertProfessorAccount(tx, prof, in.Email)
		if err != nil {
			return err
		}
		out.User, out.credential = user, credential
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("professor updated", "professor_id", out.Professor.ID)
	s.deliverCredential(out)
	return out, nil
}

// upsertAvailability updates the professor's row in place or inserts it
// when there is none yet.
func upsertAvailability(tx *gorm.DB, professorID uint, in *Availability) (*model.TimeAvailability, error) {
	next := in.model(professorID)

	var current model.TimeAvailability
	err := tx.Where("professor_id = ?", professorID).First(&current).Error
	switch {
	case database.IsNotFound(err):
		if err := tx.Create(&next).Error; err != nil {
			return nil, fmt.Errorf("insert availability: %w", err)
		}
		return &next, nil
	case err != nil:
		return nil, err
	}

	if err := tx.Model(&current).Updates(next.DayColumns()).Error; err != nil {
		return nil, fmt.Errorf("update availability: %w", err)
	}
	return &current, nil
}

// upsertProfessorAccount mirrors role and status onto the professor's
// account, creating one when an email is supplied and none exists.
func (s *Service) upsertProfessorAccount(tx *gorm.DB, prof *model.Professor, email string) (*model.User, string, error) {
	role := model.RoleForPosition(prof.Position)

	var user model.User
	err := tx.Where("ref_id = ? AND user_type = ?", prof.ID, model.IdentityProfessor).First(&user).Error
	switch {
	case database.IsNotFound(err):
		if email == "" {
			return nil, "", nil
		}
		return s.insertAccount(tx, model.ProfessorRef(prof.ID), email, role, prof.Status)
	case err != nil:
		return nil, "", err
	}

	updates := map[string]interface{}{"role": role, "status": prof.Status}
	if email != "" && email != user.Email {
		if err := emailAvailable(tx, email, user.ID); err != nil {
			return nil, "", err
		}
		updates["email"] = email
	}
	if err := tx.Model(&user).Updates(updates).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("update account: %w", err)
	}
	return &user, "", nil
}

// insertAccount creates an account with a fresh random credential and
// returns the plaintext for mailing.
func (s *Service) insertAccount(tx *gorm.DB, ref model.IdentityRef, email, role, status string) (*model.User, string, error) {
	if err := emailAvailable(tx, email, 0); err != nil {
		return nil, "", err
	}

	credential, err := crypto.RandomPassword(crypto.DefaultPasswordLength)
	if err != nil {
		return nil, "", err
	}
	hash, err := auth.HashPassword(credential)
	if err != nil {
		return nil, "", err
	}

	user := model.NewUser(ref, email, hash, role, status)
	if err := tx.Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("insert account: %w", err)
	}
	return user, credential, nil
}

// deliverCredential mails a newly issued credential. Delivery is outside
// the transaction; a failure is logged and reported on out only.
func (s *Service) deliverCredential(out *Provisioned) {
	if out.credential == "" || out.User == nil {
		return
	}
	defer func() { out.credential = "" }()

	if s.mailer == nil {
		slog.Warn("no mailer configured, account credential not sent", "user_id", out.User.ID)
		return
	}
	if err := s.mailer.SendAccountCredentials(out.User.Email, out.Professor.FullName(), out.credential); err != nil {
		slog.Error("failed to send account credentials", "user_id", out.User.ID, "error", err)
		return
	}
	out.CredentialsSent = true
}

// DeleteProfessor removes availability, account and professor, in that order.
func (s *Service) DeleteProfessor(ctx context.Context, professorID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prof, err := findProfessor(tx, professorID)
		if err != nil {
			return err
		}
		if err := tx.Where("professor_id = ?", prof.ID).Delete(&model.TimeAvailability{}).Error; err != nil {
			return fmt.Errorf("delete availability: %w", err)
		}
		if err := tx.Where("ref_id = ? AND user_type = ?", prof.ID, model.IdentityProfessor).
			Delete(&model.User{}).Error; err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if err := tx.Delete(prof).Error; err != nil {
			return fmt.Errorf("delete professor: %w", err)
		}
		slog.Info("professor deleted", "professor_id", prof.ID)
		return nil
	})
}

// CreateAdmin writes an administrator and its ADMIN account in one transaction.
func (s *Service) CreateAdmin(ctx context.Context, in AdminInput) (*model.Admin, *model.User, error) {
	in.normalize()
	if err := s.validator.Check(&in); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	admin := &model.Admin{
		FirstName:    in.FirstName,
		MiddleName:   in.MiddleName,
		LastName:     in.LastName,
		ExtendedName: in.ExtendedName,
		Email:        in.Email,
		PasswordHash: hash,
		Status:       in.Status,
	}
	var user *model.User

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := emailAvailable(tx, in.Email, 0); err != nil {
			return err
		}
		if err := tx.Create(admin).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("insert admin: %w", err)
		}
		user = model.NewUser(model.AdminRef(admin.ID), in.Email, hash, model.RoleAdmin, in.Status)
		if err := tx.Create(user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("admin created", "admin_id", admin.ID, "user_id", user.ID)
	return admin, user, nil
}

// UpdateAdmin edits the administrator behind account userID and its account.
func (s *Service) UpdateAdmin(ctx context.Context, userID uint, in AdminUpdate) error {
	in.normalize()
	if err := s.validator.Check(&in); err != nil {
		return err
	}

	var hash string
	if in.Password != "" {
		h, err := auth.HashPassword(in.Password)
		if err != nil {
			return err
		}
		hash = h
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		err := tx.Where("user_id = ? AND user_type = ?", userID, model.IdentityAdmin).First(&user).Error
		if database.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if in.Email != user.Email {
			if err := emailAvailable(tx, in.Email, user.ID); err != nil {
				return err
			}
		}

		adminUpdates := map[string]interface{}{
			"first_name":    in.FirstName,
			"middle_name":   in.MiddleName,
			"last_name":     in.LastName,
			"extended_name": in.ExtendedName,
			"email":         in.Email,
			"status":        in.Status,
		}
		userUpdates := map[string]interface{}{"email": in.Email, "status": in.Status}
		if hash != "" {
			adminUpdates["password"] = hash
			userUpdates["password"] = hash
		}

		res := tx.Model(&model.Admin{}).Where("admin_id = ?", user.RefID).Updates(adminUpdates)
		if res.Error != nil {
			if database.IsUniqueViolation(res.Error) {
				return ErrEmailTaken
			}
			return fmt.Errorf("update admin: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&user).Updates(userUpdates).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("update account: %w", err)
		}
		return nil
	})
}

// SendPassword rotates the credential of account userID and mails the new
// one. The rotation is committed before mailing; a delivery failure returns
// ErrMailFailed with the new credential already in place.
func (s *Service) SendPassword(ctx context.Context, userID uint) error {
	credential, err := crypto.RandomPassword(crypto.DefaultPasswordLength)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(credential)
	if err != nil {
		return err
	}

	var user model.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&user).Update("password", hash).Error; err != nil {
			return fmt.Errorf("rotate password: %w", err)
		}
		if user.UserType == model.IdentityAdmin {
			if err := tx.Model(&model.Admin{}).Where("admin_id = ?", user.RefID).
				Update("password", hash).Error; err != nil {
				return fmt.Errorf("rotate admin password: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.mailer == nil {
		return fmt.Errorf("%w: no mailer configured", ErrMailFailed)
	}
	profile := s.ResolveProfile(ctx, &user)
	if err := s.mailer.SendAccountCredentials(user.Email, profile.FullName, credential); err != nil {
		slog.Error("failed to send rotated password", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrMailFailed, err)
	}
	slog.Info("password rotated and sent", "user_id", user.ID)
	return nil
}

func (s *Service) requireCollege(db *gorm.DB, collegeID uint) error {
	var n int64
	if err := db.Model(&model.College{}).Where("college_id = ?", collegeID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownCollege
	}
	return nil
}

func findProfessor(tx *gorm.DB, id uint) (*model.Professor, error) {
	var prof model.Professor
	if err := tx.First(&prof, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &prof, nil
}

// emailAvailable fails with ErrEmailTaken when another account uses email.
func emailAvailable(tx *gorm.DB, email string, exceptUserID uint) error {
	var n int64
	q := tx.Model(&model.User{}).Where("email = ?", email)
	if exceptUserID != 0 {
		q = q.Where("user_id <> ?", exceptUserID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrEmailTaken
	}
	return nil
}

func appendSorted(fields []string, name string) []string {
	out := make([]string, 0, len(fields)+1)
	inserted := false
	for _, f := range fields {
		if !inserted && name < f {
			out = append(out, name)
			inserted = true
		}
		out = append(out, f)
	}
	if !inserted {
		out = append(out, name)
	}
	return out
}
