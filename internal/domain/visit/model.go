package visit

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/nullable"
)

type Visit struct {
	VisitID             int64             `json:"visitId"`
	PatientID           int64             `json:"patientId"`
	StaffID             int64             `json:"staffId"`
	VisitDate           time.Time         `json:"visitDate"`
	VisitType           string            `json:"visitType"`
	WeightKg            *float64          `json:"weightKg"`
	HeightCm            *float64          `json:"heightCm"`
	BPSystolic          *int              `json:"bpSystolic"`
	BPDiastolic         *int              `json:"bpDiastolic"`
	TemperatureC        *float64          `json:"temperatureC"`
	WHOStage            *int              `json:"whoStage"`
	TBScreening         *string           `json:"tbScreening"`
	ClinicalNotes       *string           `json:"clinicalNotes"`
	Diagnosis           *string           `json:"diagnosis"`
	NextAppointmentDate *time.Time        `json:"nextAppointmentDate"`
	CreatedAt           time.Time         `json:"createdAt"`
	Patient             person.PatientRef `json:"patient"`
	Staff               *person.StaffRef  `json:"staff"`
}

type CreateInput struct {
	PatientID           int64          `json:"patientId"`
	StaffID             int64          `json:"staffId"`
	VisitDate           nullable.Date  `json:"visitDate"`
	VisitType           string         `json:"visitType"`
	WeightKg            *float64       `json:"weightKg"`
	HeightCm            *float64       `json:"heightCm"`
	BPSystolic          *int           `json:"bpSystolic"`
	BPDiastolic         *int           `json:"bpDiastolic"`
	TemperatureC        *float64       `json:"temperatureC"`
	WHOStage            *int           `json:"whoStage"`
	TBScreening         *string        `json:"tbScreening"`
	ClinicalNotes       *string        `json:"clinicalNotes"`
	Diagnosis           *string        `json:"diagnosis"`
	NextAppointmentDate *nullable.Date `json:"nextAppointmentDate"`
}

func checkVitals(weight, height, temp *float64, sys, dia, stage *int) error {
	for name, v := range map[string]*float64{"weightKg": weight, "heightCm": height, "temperatureC": temp} {
		if v != nil && *v <= 0 {
			return apperr.InvalidInput(name + " must be positive")
		}
	}
	for name, v := range map[string]*int{"bpSystolic": sys, "bpDiastolic": dia} {
		if v != nil && *v <= 0 {
			return apperr.InvalidInput(name + " must be positive")
		}
	}
	if stage != nil && (*stage < 1 || *stage > 4) {
		return apperr.InvalidInput("whoStage must be between 1 and 4")
	}
	return nil
}

func (in *CreateInput) Validate() error {
	if in.PatientID <= 0 {
		return apperr.InvalidInput("patientId is required")
	}
	if in.StaffID <= 0 {
		return apperr.InvalidInput("staffId is required")
	}
	if in.VisitDate.IsZero() {
		return apperr.InvalidInput("visitDate is required")
	}
	in.VisitType = strings.TrimSpace(in.VisitType)
	if in.VisitType == "" {
		return apperr.InvalidInput("visitType is required")
	}
	return checkVitals(in.WeightKg, in.HeightCm, in.TemperatureC, in.BPSystolic, in.BPDiastolic, in.WHOStage)
}

type Patch struct {
	VisitDate           nullable.Field[nullable.Date] `json:"visitDate"`
	VisitType           nullable.Field[string]        `json:"visitType"`
	StaffID             nullable.Field[int64]         `json:"staffId"`
	WeightKg            nullable.Field[float64]       `json:"weightKg"`
	HeightCm            nullable.Field[float64]       `json:"heightCm"`
	BPSystolic          nullable.Field[int]           `json:"bpSystolic"`
	BPDiastolic         nullable.Field[int]           `json:"bpDiastolic"`
	TemperatureC        nullable.Field[float64]       `json:"temperatureC"`
	WHOStage            nullable.Field[int]           `json:"whoStage"`
	TBScreening         nullable.Field[string]        `json:"tbScreening"`
	ClinicalNotes       nullable.Field[string]        `json:"clinicalNotes"`
	Diagnosis           nullable.Field[string]        `json:"diagnosis"`
	NextAppointmentDate nullable.Field[nullable.Date] `json:"nextAppointmentDate"`
}

func (p *Patch) Validate() error {
	if p.VisitDate.Set && p.VisitDate.Null {
		return apperr.InvalidInput("visitDate cannot be empty")
	}
	if p.VisitType.Set && (p.VisitType.Null || strings.TrimSpace(p.VisitType.Value) == "") {
		return apperr.InvalidInput("visitType cannot be empty")
	}
	if p.StaffID.Set && (p.StaffID.Null || p.StaffID.Value <= 0) {
		return apperr.InvalidInput("staffId cannot be empty")
	}
	return checkVitals(p.WeightKg.Ptr(), p.HeightCm.Ptr(), p.TemperatureC.Ptr(),
		p.BPSystolic.Ptr(), p.BPDiastolic.Ptr(), p.WHOStage.Ptr())
}

type ListFilter struct {
	PatientID *int64
	StaffID   *int64
	Dates     params.DateRange
}
