package appointment

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/nullable"
)

const (
	StatusScheduled = "Scheduled"
	StatusAttended  = "Attended"
	StatusMissed    = "Missed"

	defaultType = "Clinic Visit"
)

var statuses = map[string]bool{
	StatusScheduled: true, StatusAttended: true, StatusMissed: true, "Cancelled": true, "Rescheduled": true,
}

type Appointment struct {
	AppointmentID   int64             `json:"appointmentId"`
	PatientID       int64             `json:"patientId"`
	StaffID         *int64            `json:"staffId"`
	ScheduledDate   time.Time         `json:"scheduledDate"`
	AppointmentType string            `json:"appointmentType"`
	Status          string            `json:"status"`
	Reason          *string           `json:"reason"`
	Notes           *string           `json:"notes"`
	CreatedAt       time.Time         `json:"createdAt"`
	Patient         person.PatientRef `json:"patient"`
	Staff           *person.StaffRef  `json:"staff"`
}

type CreateInput struct {
	PatientID       int64         `json:"patientId"`
	StaffID         *int64        `json:"staffId"`
	ScheduledDate   nullable.Date `json:"scheduledDate"`
	AppointmentType string        `json:"appointmentType"`
	Reason          *string       `json:"reason"`
	Notes           *string       `json:"notes"`
}

func (in *CreateInput) Validate() error {
	if in.PatientID <= 0 {
		return apperr.InvalidInput("patientId is required")
	}
	if in.ScheduledDate.IsZero() {
		return apperr.InvalidInput("scheduledDate is required")
	}
	in.AppointmentType = strings.TrimSpace(in.AppointmentType)
	if in.AppointmentType == "" {
		in.AppointmentType = defaultType
	}
	return nil
}

type Patch struct {
	ScheduledDate   nullable.Field[nullable.Date] `json:"scheduledDate"`
	AppointmentType nullable.Field[string]        `json:"appointmentType"`
	StaffID         nullable.Field[int64]         `json:"staffId"`
	Status          nullable.Field[string]        `json:"status"`
	Reason          nullable.Field[string]        `json:"reason"`
	Notes           nullable.Field[string]        `json:"notes"`
}

func (p *Patch) Validate() error {
	if p.ScheduledDate.Set && p.ScheduledDate.Null {
		return apperr.InvalidInput("scheduledDate cannot be empty")
	}
	if p.AppointmentType.Set && (p.AppointmentType.Null || strings.TrimSpace(p.AppointmentType.Value) == "") {
		return apperr.InvalidInput("appointmentType cannot be empty")
	}
	if p.Status.Set && (p.Status.Null || !statuses[p.Status.Value]) {
		return apperr.InvalidInput("Invalid status")
	}
	return nil
}

type ListFilter struct {
	PatientID *int64
	StaffID   *int64
	Status    string
	Dates     params.DateRange
}

// PatientFilter narrows one patient's appointments. Upcoming keeps scheduled
// appointments from today on, soonest first.
type PatientFilter struct {
	Status   string
	Upcoming bool
}
