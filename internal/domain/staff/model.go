// Package staff manages facility staff, their role assignments and the
// credentials the session endpoints authenticate against.
package staff

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/auth"
	"github.com/hivcare/hivcare/pkg/nullable"
)

type Role struct {
	RoleID      int     `json:"roleId"`
	RoleName    string  `json:"roleName"`
	Description *string `json:"description"`
}

type Staff struct {
	StaffID           int64         `json:"staffId"`
	StaffCode         string        `json:"staffCode"`
	Cadre             string        `json:"cadre"`
	MOHRegistrationNo *string       `json:"mohRegistrationNo"`
	HireDate          *time.Time    `json:"hireDate"`
	Active            bool          `json:"active"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	Person            person.Person `json:"person"`
	Roles             []Role        `json:"roles"`
}

func (s *Staff) RoleNames() []string {
	names := make([]string, len(s.Roles))
	for i, r := range s.Roles {
		names[i] = r.RoleName
	}
	return names
}

func (s *Staff) Principal() *auth.Principal {
	return &auth.Principal{
		StaffID:   s.StaffID,
		StaffCode: s.StaffCode,
		Cadre:     s.Cadre,
		Name:      s.Person.FirstName + " " + s.Person.LastName,
		Active:    s.Active,
		Roles:     s.RoleNames(),
	}
}

type CreateInput struct {
	person.Input
	StaffCode         string         `json:"staffCode"`
	Cadre             string         `json:"cadre"`
	MOHRegistrationNo *string        `json:"mohRegistrationNo"`
	HireDate          *nullable.Date `json:"hireDate"`
	RoleIDs           []int          `json:"roleIds"`
	Password          string         `json:"password"`

	PasswordHash string `json:"-"`
}

func (in *CreateInput) Validate() error {
	if err := in.Input.Validate(); err != nil {
		return err
	}
	in.StaffCode = strings.TrimSpace(in.StaffCode)
	if in.StaffCode == "" {
		return apperr.InvalidInput("staffCode is required")
	}
	in.Cadre = strings.TrimSpace(in.Cadre)
	if in.Cadre == "" {
		return apperr.InvalidInput("cadre is required")
	}
	if in.Password != "" && len(in.Password) < auth.MinPasswordLength {
		return apperr.InvalidInput("Password must be at least 6 characters long")
	}
	return validRoleIDs(in.RoleIDs)
}

func validRoleIDs(ids []int) error {
	for _, id := range ids {
		if id <= 0 {
			return apperr.InvalidInput("roleIds must contain positive ids")
		}
	}
	return nil
}

type Patch struct {
	person.Patch
	Cadre             nullable.Field[string]        `json:"cadre"`
	MOHRegistrationNo nullable.Field[string]        `json:"mohRegistrationNo"`
	HireDate          nullable.Field[nullable.Date] `json:"hireDate"`
	Active            nullable.Field[bool]          `json:"active"`
}

func (p *Patch) Validate() error {
	if err := p.Patch.Validate(); err != nil {
		return err
	}
	if p.Cadre.Set && (p.Cadre.Null || strings.TrimSpace(p.Cadre.Value) == "") {
		return apperr.InvalidInput("cadre cannot be empty")
	}
	if p.Active.Set && p.Active.Null {
		return apperr.InvalidInput("active must be true or false")
	}
	return nil
}

type RolesInput struct {
	RoleIDs []int `json:"roleIds"`
}

func (in *RolesInput) Validate() error {
	if len(in.RoleIDs) == 0 {
		return apperr.InvalidInput("roleIds must be a non-empty array")
	}
	return validRoleIDs(in.RoleIDs)
}

type ListFilter struct {
	Active *bool
	Cadre  string
	Search string
}

// Credentials is what login needs to check a password.
type Credentials struct {
	Staff        *Staff
	PasswordHash string
}
