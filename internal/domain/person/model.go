// Package person holds the demographic record shared by patients and staff,
// and the compact patient/staff references embedded in clinical records.
package person

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/pkg/nullable"
)

type Person struct {
	PersonID    int64     `json:"personId"`
	NIN         *string   `json:"nin"`
	FirstName   string    `json:"firstName"`
	MiddleName  *string   `json:"middleName"`
	LastName    string    `json:"lastName"`
	Sex         string    `json:"sex"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	PhoneNumber *string   `json:"phoneNumber"`
	Email       *string   `json:"email"`
	District    *string   `json:"district"`
	Subcounty   *string   `json:"subcounty"`
	Parish      *string   `json:"parish"`
	Village     *string   `json:"village"`
	AddressLine *string   `json:"addressLine"`
}

// Input is the demographic part of a create request.
type Input struct {
	NIN         *string       `json:"nin"`
	FirstName   string        `json:"firstName"`
	MiddleName  *string       `json:"middleName"`
	LastName    string        `json:"lastName"`
	Sex         string        `json:"sex"`
	DateOfBirth nullable.Date `json:"dateOfBirth"`
	PhoneNumber *string       `json:"phoneNumber"`
	Email       *string       `json:"email"`
	District    *string       `json:"district"`
	Subcounty   *string       `json:"subcounty"`
	Parish      *string       `json:"parish"`
	Village     *string       `json:"village"`
	AddressLine *string       `json:"addressLine"`
}

var validSex = map[string]bool{"M": true, "F": true, "Other": true}

func (in *Input) Validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" {
		return apperr.InvalidInput("firstName and lastName are required")
	}
	if !validSex[in.Sex] {
		return apperr.InvalidInput("sex must be one of M, F, Other")
	}
	if in.DateOfBirth.IsZero() {
		return apperr.InvalidInput("dateOfBirth is required")
	}
	if in.DateOfBirth.After(time.Now()) {
		return apperr.InvalidInput("dateOfBirth cannot be in the future")
	}
	return nil
}

// Patch is the demographic part of a partial update.
type Patch struct {
	NIN         nullable.Field[string]        `json:"nin"`
	FirstName   nullable.Field[string]        `json:"firstName"`
	MiddleName  nullable.Field[string]        `json:"middleName"`
	LastName    nullable.Field[string]        `json:"lastName"`
	Sex         nullable.Field[string]        `json:"sex"`
	DateOfBirth nullable.Field[nullable.Date] `json:"dateOfBirth"`
	PhoneNumber nullable.Field[string]        `json:"phoneNumber"`
	Email       nullable.Field[string]        `json:"email"`
	District    nullable.Field[string]        `json:"district"`
	Subcounty   nullable.Field[string]        `json:"subcounty"`
	Parish      nullable.Field[string]        `json:"parish"`
	Village     nullable.Field[string]        `json:"village"`
	AddressLine nullable.Field[string]        `json:"addressLine"`
}

func (p *Patch) Validate() error {
	for name, f := range map[string]nullable.Field[string]{"firstName": p.FirstName, "lastName": p.LastName, "sex": p.Sex} {
		if f.Set && (f.Null || strings.TrimSpace(f.Value) == "") {
			return apperr.InvalidInput(name + " cannot be empty")
		}
	}
	if p.Sex.Valid() && !validSex[p.Sex.Value] {
		return apperr.InvalidInput("sex must be one of M, F, Other")
	}
	if p.DateOfBirth.Set && p.DateOfBirth.Null {
		return apperr.InvalidInput("dateOfBirth cannot be empty")
	}
	return nil
}

// Empty reports whether no field was present in the body.
func (p *Patch) Empty() bool {
	for _, f := range []nullable.Field[string]{p.NIN, p.FirstName, p.MiddleName, p.LastName, p.Sex,
		p.PhoneNumber, p.Email, p.District, p.Subcounty, p.Parish, p.Village, p.AddressLine} {
		if f.Set {
			return false
		}
	}
	return !p.DateOfBirth.Set
}

// PatientRef identifies the patient a clinical record belongs to.
type PatientRef struct {
	PatientID     int64  `json:"patientId"`
	PatientNumber string `json:"patientNumber"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
}

// StaffRef identifies a staff member attached to a record.
type StaffRef struct {
	StaffID   int64  `json:"staffId"`
	StaffCode string `json:"staffCode"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
