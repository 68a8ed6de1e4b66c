package identity

import (
	"context"
	"log/slog"

	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/model"
)

// ResolveProfile looks up the identity row behind user and returns its
// display data. A dangling reference yields the generic name "User".
func (s *Service) ResolveProfile(ctx context.Context, user *model.User) model.Profile {
	db := s.db.WithContext(ctx)

	switch user.UserType {
	case model.IdentityAdmin:
		var admin model.Admin
		if err := db.First(&admin, user.RefID).Error; err == nil {
			return admin.Profile()
		} else if !database.IsNotFound(err) {
			slog.Error("failed to load admin identity", "user_id", user.ID, "error", err)
		}
	case model.IdentityProfessor:
		var prof model.Professor
		if err := db.Preload("College").First(&prof, user.RefID).Error; err == nil {
			return prof.Profile()
		} else if !database.IsNotFound(err) {
			slog.Error("failed to load professor identity", "user_id", user.ID, "error", err)
		}
	}

	slog.Warn("account has no identity row", "user_id", user.ID, "ref", user.Identity().String())
	return model.Profile{FullName: "User"}
}

// Account is one row of the account listing.
type Account struct {
	UserID      uint   `json:"user_id"`
	UserType    string `json:"user_type"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	FacultyType string `json:"faculty_type"`
	Position    string `json:"position"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

// ListAccounts returns every admin and professor account ordered by user id.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	db := s.db.WithContext(ctx)

	var users []model.User
	if err := db.Order("user_id ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	var adminIDs, profIDs []uint
	for _, u := range users {
		switch u.UserType {
		case model.IdentityAdmin:
			adminIDs = append(adminIDs, u.RefID)
		case model.IdentityProfessor:
			profIDs = append(profIDs, u.RefID)
		}
	}

	admins := make(map[uint]model.Admin, len(adminIDs))
	if len(adminIDs) > 0 {
		var rows []model.Admin
		if err := db.Where("admin_id IN ?", adminIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, a := range rows {
			admins[a.ID] = a
		}
	}

	profs := make(map[uint]model.Professor, len(profIDs))
	if len(profIDs) > 0 {
		var rows []model.Professor
		if err := db.Preload("College").Where("professor_id IN ?", profIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, p := range rows {
			profs[p.ID] = p
		}
	}

	accounts := make([]Account, 0, len(users))
	for _, u := range users {
		acc := Account{
			UserID:   u.ID,
			UserType: string(u.UserType),
			Email:    u.Email,
			Role:     u.Role,
			Status:   u.Status,
		}
		switch u.UserType {
		case model.IdentityAdmin:
			a, ok := admins[u.RefID]
			if !ok {
				continue
			}
			acc.FullName = a.FullName()
		case model.IdentityProfessor:
			p, ok := profs[u.RefID]
			if !ok {
				continue
			}
			prof := p.Profile()
			acc.FullName = prof.FullName
			acc.Department = prof.Department
			acc.FacultyType = p.FacultyType
			acc.Position = p.Position
		default:
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// ProfessorView is a professor as shown in the faculty directory.
type ProfessorView struct {
	ProfessorID     uint                    `json:"professor_id"`
	FullName        string                  `json:"full_name"`
	FirstName       string                  `json:"first_name"`
	MiddleName      string                  `json:"middle_name"`
	LastName        string                  `json:"last_name"`
	ExtendedName    string                  `json:"extended_name"`
	CollegeID       uint                    `json:"college_id"`
	Department      string                  `json:"department"`
	FacultyType     string                  `json:"faculty_type"`
	Position        string                  `json:"position"`
	BachelorsDegree string                  `json:"bachelors_degree"`
	MastersDegree   string                  `json:"masters_degree"`
	DoctorateDegree string                  `json:"doctorate_degree"`
	Specialization  []string                `json:"specialization"`
	Status          string                  `json:"status"`
	Availability    *model.TimeAvailability `json:"time_availability"`
}

func newProfessorView(p *model.Professor) ProfessorView {
	v := ProfessorView{
		ProfessorID:     p.ID,
		FullName:        p.DirectoryName(),
		FirstName:       p.FirstName,
		MiddleName:      p.MiddleName,
		LastName:        p.LastName,
		ExtendedName:    p.ExtendedName,
		CollegeID:       p.CollegeID,
		FacultyType:     p.FacultyType,
		Position:        p.Position,
		BachelorsDegree: p.BachelorsDegree,
		MastersDegree:   p.MastersDegree,
		DoctorateDegree: p.DoctorateDegree,
		Specialization:  p.Specializations(),
		Status:          p.Status,
		Availability:    p.Availability,
	}
	if v.Specialization == nil {
		v.Specialization = []string{}
	}
	if p.College != nil {
		v.Department = p.College.Code
	}
	return v
}

// ListProfessors returns the directory ordered by last then first name.
func (s *Service) ListProfessors(ctx context.Context) ([]ProfessorView, error) {
	var profs []model.Professor
	err := s.db.WithContext(ctx).Preload("College").Preload("Availability").
		Order("last_name ASC, first_name ASC").Find(&profs).Error
	if err != nil {
		return nil, err
	}

	views := make([]ProfessorView, 0, len(profs))
	for i := range profs {
		views = append(views, newProfessorView(&profs[i]))
	}
	return views, nil
}

// GetProfessor returns one professor or ErrNotFound.
func (s *Service) GetProfessor(ctx context.Context, id uint) (*ProfessorView, error) {
	var prof model.Professor
	err := s.db.WithContext(ctx).Preload("College").Preload("Availability").First(&prof, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v := newProfessorView(&prof)
	return &v, nil
}
