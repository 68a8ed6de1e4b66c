package model

import (
	"fmt"
	"strings"
)

// IdentityKind tags which table a User account points into.
type IdentityKind string

const (
	IdentityAdmin     IdentityKind = "ADMIN"
	IdentityProfessor IdentityKind = "PROFESSOR"
)

// Valid reports whether k is one of the known identity kinds.
func (k IdentityKind) Valid() bool {
	return k == IdentityAdmin || k == IdentityProfessor
}

// IdentityRef is a typed pointer from an account to its concrete identity row.
// Construct it with AdminRef or ProfessorRef; the zero value refers to nothing.
type IdentityRef struct {
	Kind IdentityKind
	ID   uint
}

func AdminRef(id uint) IdentityRef     { return IdentityRef{Kind: IdentityAdmin, ID: id} }
func ProfessorRef(id uint) IdentityRef { return IdentityRef{Kind: IdentityProfessor, ID: id} }

func (r IdentityRef) IsZero() bool { return r.ID == 0 || !r.Kind.Valid() }

func (r IdentityRef) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// Profile is the display data a resolved identity contributes to a session.
type Profile struct {
	FullName   string `json:"fullName"`
	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
}

// Account roles carried in users.role.
const (
	RoleAdmin     = "ADMIN"
	RoleDean      = "DEAN"
	RoleChair     = "CHAIR"
	RoleProfessor = "PROFESSOR"
)

// RoleForPosition derives the account role mirrored from a professor's position.
// Only Dean and Chair grant a management role; every other position, whatever
// its text, maps to PROFESSOR.
func RoleForPosition(position string) string {
	switch strings.ToLower(strings.TrimSpace(position)) {
	case "dean":
		return RoleDean
	case "chair":
		return RoleChair
	default:
		return RoleProfessor
	}
}

// joinName concatenates non-empty name parts with single spaces.
func joinName(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
