package counseling

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/nullable"
)

const defaultSessionType = "Individual"

type Session struct {
	SessionID         int64             `json:"sessionId"`
	PatientID         int64             `json:"patientId"`
	CounselorID       int64             `json:"counselorId"`
	SessionDate       time.Time         `json:"sessionDate"`
	SessionType       string            `json:"sessionType"`
	TopicsDiscussed   *string           `json:"topicsDiscussed"`
	AdherenceBarriers *string           `json:"adherenceBarriers"`
	Notes             *string           `json:"notes"`
	NextSessionDate   *time.Time        `json:"nextSessionDate"`
	CreatedAt         time.Time         `json:"createdAt"`
	Patient           person.PatientRef `json:"patient"`
	Counselor         *person.StaffRef  `json:"counselor"`
}

type CreateInput struct {
	PatientID         int64          `json:"patientId"`
	SessionDate       nullable.Date  `json:"sessionDate"`
	SessionType       string         `json:"sessionType"`
	TopicsDiscussed   *string        `json:"topicsDiscussed"`
	AdherenceBarriers *string        `json:"adherenceBarriers"`
	Notes             *string        `json:"notes"`
	NextSessionDate   *nullable.Date `json:"nextSessionDate"`

	CounselorID int64 `json:"-"`
}

func (in *CreateInput) Validate() error {
	if in.PatientID <= 0 {
		return apperr.InvalidInput("patientId is required")
	}
	if in.SessionDate.IsZero() {
		return apperr.InvalidInput("sessionDate is required")
	}
	if in.CounselorID <= 0 {
		return apperr.InvalidInput("Counselor is required")
	}
	in.SessionType = strings.TrimSpace(in.SessionType)
	if in.SessionType == "" {
		in.SessionType = defaultSessionType
	}
	if in.NextSessionDate != nil && in.NextSessionDate.Before(in.SessionDate.Time) {
		return apperr.InvalidInput("nextSessionDate must not be before sessionDate")
	}
	return nil
}

type Patch struct {
	SessionDate       nullable.Field[nullable.Date] `json:"sessionDate"`
	SessionType       nullable.Field[string]        `json:"sessionType"`
	TopicsDiscussed   nullable.Field[string]        `json:"topicsDiscussed"`
	AdherenceBarriers nullable.Field[string]        `json:"adherenceBarriers"`
	Notes             nullable.Field[string]        `json:"notes"`
	NextSessionDate   nullable.Field[nullable.Date] `json:"nextSessionDate"`
}

func (p *Patch) Validate() error {
	if p.SessionDate.Set && p.SessionDate.Null {
		return apperr.InvalidInput("sessionDate cannot be empty")
	}
	if p.SessionType.Set && (p.SessionType.Null || strings.TrimSpace(p.SessionType.Value) == "") {
		return apperr.InvalidInput("sessionType cannot be empty")
	}
	return nil
}

type ListFilter struct {
	PatientID   *int64
	CounselorID *int64
	Dates       params.DateRange
}
