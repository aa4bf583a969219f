// Package cag manages community ART groups: patients who take turns
// collecting refills for the whole group. Membership, rotations and the
// coordinator are changed only through stored procedures.
package cag

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/pkg/nullable"
)

const (
	defaultMemberRole = "Member"

	// suppressedBelow is the viral load, in copies/mL, under which a
	// member counts as virally suppressed.
	suppressedBelow = 1000
	// excellentAdherence is the minimum percent for excellent adherence.
	excellentAdherence = 95
)

type CAG struct {
	CAGID                int64            `json:"cagId"`
	CAGName              string           `json:"cagName"`
	District             *string          `json:"district"`
	Subcounty            *string          `json:"subcounty"`
	Parish               *string          `json:"parish"`
	Village              *string          `json:"village"`
	FormationDate        time.Time        `json:"formationDate"`
	Status               string           `json:"status"`
	MaxMembers           int              `json:"maxMembers"`
	CoordinatorPatientID *int64           `json:"coordinatorPatientId"`
	FacilityStaffID      *int64           `json:"facilityStaffId"`
	CreatedAt            time.Time        `json:"createdAt"`
	CurrentMemberCount   int              `json:"currentMemberCount"`
	CoordinatorName      *string          `json:"coordinatorName"`
	FacilityStaff        *person.StaffRef `json:"facilityStaff"`
}

type Member struct {
	PatientCAGID  int64     `json:"patientCagId"`
	PatientID     int64     `json:"patientId"`
	PatientNumber string    `json:"patientNumber"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Sex           string    `json:"sex"`
	Age           int       `json:"age"`
	JoinDate      time.Time `json:"joinDate"`
	RoleInCAG     string    `json:"roleInCag"`
	CurrentStatus string    `json:"currentStatus"`
}

type Rotation struct {
	RotationID     int64             `json:"rotationId"`
	RotationDate   time.Time         `json:"rotationDate"`
	PickupPatient  person.PatientRef `json:"pickupPatient"`
	PatientsServed *int              `json:"patientsServed"`
	DispenseID     *int64            `json:"dispenseId"`
	DispenseDate   *time.Time        `json:"dispenseDate"`
	RegimenName    *string           `json:"regimenName"`
	Notes          *string           `json:"notes"`
}

// Statistics summarises a group's current members. Adherence uses each
// member's latest log and suppression each member's latest completed viral
// load.
type Statistics struct {
	CAGID                   int64      `json:"cagId"`
	ActiveMembers           int        `json:"activeMembers"`
	AvgAdherence            *float64   `json:"avgAdherence"`
	ExcellentAdherenceCount int        `json:"excellentAdherenceCount"`
	SuppressedVLCount       int        `json:"suppressedVlCount"`
	UnsuppressedVLCount     int        `json:"unsuppressedVlCount"`
	TotalRotations          int        `json:"totalRotations"`
	LastRotationDate        *time.Time `json:"lastRotationDate"`
	FirstRotationDate       *time.Time `json:"firstRotationDate"`
}

type ListFilter struct {
	Status   string
	District string
	Village  string
}

type AddMemberInput struct {
	PatientID int64  `json:"patientId"`
	RoleInCAG string `json:"roleInCag"`
}

func (in *AddMemberInput) Validate() error {
	if in.PatientID <= 0 {
		return apperr.InvalidInput("patientId is required")
	}
	in.RoleInCAG = strings.TrimSpace(in.RoleInCAG)
	if in.RoleInCAG == "" {
		in.RoleInCAG = defaultMemberRole
	}
	return nil
}

type RemoveMemberInput struct {
	PatientID  int64   `json:"patientId"`
	ExitReason *string `json:"exitReason"`
}

func (in *RemoveMemberInput) Validate() error {
	if in.PatientID <= 0 {
		return apperr.InvalidInput("patientId is required")
	}
	return nil
}

type RotationInput struct {
	PickupPatientID int64         `json:"pickupPatientId"`
	RotationDate    nullable.Date `json:"rotationDate"`
	DispenseID      *int64        `json:"dispenseId"`
	PatientsServed  *int          `json:"patientsServed"`
	Notes           *string       `json:"notes"`
}

func (in *RotationInput) Validate() error {
	switch {
	case in.PickupPatientID <= 0:
		return apperr.InvalidInput("pickupPatientId is required")
	case in.RotationDate.IsZero():
		return apperr.InvalidInput("rotationDate is required")
	case in.PatientsServed != nil && *in.PatientsServed < 1:
		return apperr.InvalidInput("patientsServed must be at least 1")
	}
	return nil
}

type CoordinatorInput struct {
	PatientID int64 `json:"patientId"`
}

func (in *CoordinatorInput) Validate() error {
	if in.PatientID <= 0 {
		return apperr.InvalidInput("patientId is required")
	}
	return nil
}

type MembersResult struct {
	Message string    `json:"message"`
	Members []*Member `json:"members"`
}

type CoordinatorResult struct {
	Message string `json:"message"`
	CAG     *CAG   `json:"cag"`
}
