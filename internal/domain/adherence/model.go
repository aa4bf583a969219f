package adherence

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/nullable"
)

// MethodComputed marks logs written by the database adherence computation.
const MethodComputed = "Computed"

type Log struct {
	AdherenceID      int64              `json:"adherenceId"`
	PatientID        int64              `json:"patientId"`
	LogDate          time.Time          `json:"logDate"`
	AdherencePercent float64            `json:"adherencePercent"`
	MethodUsed       string             `json:"methodUsed"`
	Notes            *string            `json:"notes"`
	CreatedAt        time.Time          `json:"createdAt"`
	Patient          *person.PatientRef `json:"patient,omitempty"`
}

func validPercent(p float64) error {
	if p < 0 || p > 100 {
		return apperr.InvalidInput("Adherence percentage must be between 0 and 100")
	}
	return nil
}

type CreateInput struct {
	PatientID        int64         `json:"patientId"`
	LogDate          nullable.Date `json:"logDate"`
	AdherencePercent *float64      `json:"adherencePercent"`
	MethodUsed       string        `json:"methodUsed"`
	Notes            *string       `json:"notes"`
}

func (in *CreateInput) Validate() error {
	if in.AdherencePercent == nil {
		return apperr.InvalidInput("Adherence percentage must be between 0 and 100")
	}
	if err := validPercent(*in.AdherencePercent); err != nil {
		return err
	}
	if in.PatientID <= 0 {
		return apperr.InvalidInput("patientId is required")
	}
	if in.LogDate.IsZero() {
		return apperr.InvalidInput("logDate is required")
	}
	in.MethodUsed = strings.TrimSpace(in.MethodUsed)
	if in.MethodUsed == "" {
		return apperr.InvalidInput("methodUsed is required")
	}
	return nil
}

type Patch struct {
	LogDate          nullable.Field[nullable.Date] `json:"logDate"`
	AdherencePercent nullable.Field[float64]       `json:"adherencePercent"`
	MethodUsed       nullable.Field[string]        `json:"methodUsed"`
	Notes            nullable.Field[string]        `json:"notes"`
}

func (p *Patch) Validate() error {
	if p.AdherencePercent.Set {
		if p.AdherencePercent.Null {
			return apperr.InvalidInput("Adherence percentage must be between 0 and 100")
		}
		if err := validPercent(p.AdherencePercent.Value); err != nil {
			return err
		}
	}
	if p.LogDate.Set && p.LogDate.Null {
		return apperr.InvalidInput("logDate cannot be empty")
	}
	if p.MethodUsed.Set && (p.MethodUsed.Null || strings.TrimSpace(p.MethodUsed.Value) == "") {
		return apperr.InvalidInput("methodUsed cannot be empty")
	}
	return nil
}

type ListFilter struct {
	PatientID  *int64
	MethodUsed string
	Dates      params.DateRange
}

// ComputeResult is returned after the database recomputes a patient's adherence.
type ComputeResult struct {
	Message   string `json:"message"`
	Adherence *Log   `json:"adherence"`
}
