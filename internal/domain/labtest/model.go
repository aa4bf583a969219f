package labtest

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/nullable"
)

// TestTypeViralLoad is the test type whose completed results form the viral
// load history.
const TestTypeViralLoad = "ViralLoad"

const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

var statuses = map[string]bool{
	StatusPending: true, "In Progress": true, StatusCompleted: true, "Rejected": true, "Cancelled": true,
}

type LabTest struct {
	LabTestID      int64             `json:"labTestId"`
	PatientID      int64             `json:"patientId"`
	VisitID        *int64            `json:"visitId"`
	OrderedBy      *int64            `json:"orderedBy"`
	TestType       string            `json:"testType"`
	TestDate       time.Time         `json:"testDate"`
	SampleID       *string           `json:"sampleId"`
	ResultNumeric  *float64          `json:"resultNumeric"`
	ResultText     *string           `json:"resultText"`
	ResultUnit     *string           `json:"resultUnit"`
	ResultDate     *time.Time        `json:"resultDate"`
	Status         string            `json:"status"`
	Notes          *string           `json:"notes"`
	CreatedAt      time.Time         `json:"createdAt"`
	Patient        person.PatientRef `json:"patient"`
	OrderedByStaff *person.StaffRef  `json:"orderedByStaff"`
}

type CreateInput struct {
	PatientID     int64          `json:"patientId"`
	VisitID       *int64         `json:"visitId"`
	OrderedBy     *int64         `json:"orderedBy"`
	TestType      string         `json:"testType"`
	TestDate      nullable.Date  `json:"testDate"`
	SampleID      *string        `json:"sampleId"`
	ResultNumeric *float64       `json:"resultNumeric"`
	ResultText    *string        `json:"resultText"`
	ResultUnit    *string        `json:"resultUnit"`
	ResultDate    *nullable.Date `json:"resultDate"`
	Status        string         `json:"status"`
	Notes         *string        `json:"notes"`
}

func (in *CreateInput) Validate() error {
	if in.PatientID <= 0 {
		return apperr.InvalidInput("patientId is required")
	}
	in.TestType = strings.TrimSpace(in.TestType)
	if in.TestType == "" {
		return apperr.InvalidInput("testType is required")
	}
	if in.TestDate.IsZero() {
		return apperr.InvalidInput("testDate is required")
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	if !statuses[in.Status] {
		return apperr.InvalidInput("Invalid status")
	}
	if in.ResultNumeric != nil && *in.ResultNumeric < 0 {
		return apperr.InvalidInput("resultNumeric cannot be negative")
	}
	return nil
}

type Patch struct {
	TestType      nullable.Field[string]        `json:"testType"`
	TestDate      nullable.Field[nullable.Date] `json:"testDate"`
	SampleID      nullable.Field[string]        `json:"sampleId"`
	ResultNumeric nullable.Field[float64]       `json:"resultNumeric"`
	ResultText    nullable.Field[string]        `json:"resultText"`
	ResultUnit    nullable.Field[string]        `json:"resultUnit"`
	ResultDate    nullable.Field[nullable.Date] `json:"resultDate"`
	Status        nullable.Field[string]        `json:"status"`
	Notes         nullable.Field[string]        `json:"notes"`
}

func (p *Patch) Validate() error {
	if p.TestType.Set && (p.TestType.Null || strings.TrimSpace(p.TestType.Value) == "") {
		return apperr.InvalidInput("testType cannot be empty")
	}
	if p.TestDate.Set && p.TestDate.Null {
		return apperr.InvalidInput("testDate cannot be empty")
	}
	if p.Status.Set && (p.Status.Null || !statuses[p.Status.Value]) {
		return apperr.InvalidInput("Invalid status")
	}
	if p.ResultNumeric.Valid() && p.ResultNumeric.Value < 0 {
		return apperr.InvalidInput("resultNumeric cannot be negative")
	}
	return nil
}

type ListFilter struct {
	PatientID *int64
	TestType  string
	Status    string
	Dates     params.DateRange
}
