package patient

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/nullable"
)

type Patient struct {
	PatientID             int64         `json:"patientId"`
	PatientNumber         string        `json:"patientNumber"`
	EnrollmentDate        time.Time     `json:"enrollmentDate"`
	ARTStartDate          *time.Time    `json:"artStartDate"`
	CurrentStatus         string        `json:"currentStatus"`
	BaselineCD4           *int          `json:"baselineCd4"`
	BaselineViralLoad     *float64      `json:"baselineViralLoad"`
	WHOStage              *int          `json:"whoStage"`
	TBStatus              *string       `json:"tbStatus"`
	PregnancyStatus       *string       `json:"pregnancyStatus"`
	NextOfKinName         *string       `json:"nextOfKinName"`
	NextOfKinPhone        *string       `json:"nextOfKinPhone"`
	NextOfKinRelationship *string       `json:"nextOfKinRelationship"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
	Person                person.Person `json:"person"`
}

// Statuses a patient record can carry.
var Statuses = map[string]bool{
	"Active": true, "Transferred Out": true, "Lost to Follow-up": true, "Dead": true, "Stopped": true,
}

type CreateInput struct {
	person.Input
	PatientNumber         string         `json:"patientNumber"`
	EnrollmentDate        nullable.Date  `json:"enrollmentDate"`
	ARTStartDate          *nullable.Date `json:"artStartDate"`
	CurrentStatus         string         `json:"currentStatus"`
	BaselineCD4           *int           `json:"baselineCd4"`
	BaselineViralLoad     *float64       `json:"baselineViralLoad"`
	WHOStage              *int           `json:"whoStage"`
	TBStatus              *string        `json:"tbStatus"`
	PregnancyStatus       *string        `json:"pregnancyStatus"`
	NextOfKinName         *string        `json:"nextOfKinName"`
	NextOfKinPhone        *string        `json:"nextOfKinPhone"`
	NextOfKinRelationship *string        `json:"nextOfKinRelationship"`
}

func validWHOStage(s *int) bool {
	return s == nil || (*s >= 1 && *s <= 4)
}

func (in *CreateInput) Validate() error {
	if err := in.Input.Validate(); err != nil {
		return err
	}
	in.PatientNumber = strings.TrimSpace(in.PatientNumber)
	if in.PatientNumber == "" {
		return apperr.InvalidInput("patientNumber is required")
	}
	if in.EnrollmentDate.IsZero() {
		return apperr.InvalidInput("enrollmentDate is required")
	}
	if in.CurrentStatus == "" {
		in.CurrentStatus = "Active"
	}
	if !Statuses[in.CurrentStatus] {
		return apperr.InvalidInput("Invalid currentStatus")
	}
	if !validWHOStage(in.WHOStage) {
		return apperr.InvalidInput("whoStage must be between 1 and 4")
	}
	if in.BaselineCD4 != nil && *in.BaselineCD4 < 0 {
		return apperr.InvalidInput("baselineCd4 cannot be negative")
	}
	return nil
}

type Patch struct {
	person.Patch
	PatientNumber         nullable.Field[string]        `json:"patientNumber"`
	EnrollmentDate        nullable.Field[nullable.Date] `json:"enrollmentDate"`
	ARTStartDate          nullable.Field[nullable.Date] `json:"artStartDate"`
	CurrentStatus         nullable.Field[string]        `json:"currentStatus"`
	BaselineCD4           nullable.Field[int]           `json:"baselineCd4"`
	BaselineViralLoad     nullable.Field[float64]       `json:"baselineViralLoad"`
	WHOStage              nullable.Field[int]           `json:"whoStage"`
	TBStatus              nullable.Field[string]        `json:"tbStatus"`
	PregnancyStatus       nullable.Field[string]        `json:"pregnancyStatus"`
	NextOfKinName         nullable.Field[string]        `json:"nextOfKinName"`
	NextOfKinPhone        nullable.Field[string]        `json:"nextOfKinPhone"`
	NextOfKinRelationship nullable.Field[string]        `json:"nextOfKinRelationship"`
}

func (p *Patch) Validate() error {
	if err := p.Patch.Validate(); err != nil {
		return err
	}
	if p.PatientNumber.Set && (p.PatientNumber.Null || strings.TrimSpace(p.PatientNumber.Value) == "") {
		return apperr.InvalidInput("patientNumber cannot be empty")
	}
	if p.EnrollmentDate.Set && p.EnrollmentDate.Null {
		return apperr.InvalidInput("enrollmentDate cannot be empty")
	}
	if p.CurrentStatus.Set && (p.CurrentStatus.Null || !Statuses[p.CurrentStatus.Value]) {
		return apperr.InvalidInput("Invalid currentStatus")
	}
	if !validWHOStage(p.WHOStage.Ptr()) {
		return apperr.InvalidInput("whoStage must be between 1 and 4")
	}
	return nil
}

type ListFilter struct {
	Status string
	Search string
}

// Detail is a patient with the most recent related records.
type Detail struct {
	*Patient
	RecentVisits         []VisitSummary       `json:"recentVisits"`
	RecentLabTests       []LabTestSummary     `json:"recentLabTests"`
	RecentDispenses      []DispenseSummary    `json:"recentDispenses"`
	UpcomingAppointments []AppointmentSummary `json:"upcomingAppointments"`
	RecentAdherence      []AdherenceSummary   `json:"recentAdherence"`
	ActiveAlerts         []AlertSummary       `json:"activeAlerts"`
}

type VisitSummary struct {
	VisitID   int64     `json:"visitId"`
	VisitDate time.Time `json:"visitDate"`
	VisitType string    `json:"visitType"`
	Diagnosis *string   `json:"diagnosis"`
}

type LabTestSummary struct {
	LabTestID     int64     `json:"labTestId"`
	TestType      string    `json:"testType"`
	TestDate      time.Time `json:"testDate"`
	Status        string    `json:"status"`
	ResultNumeric *float64  `json:"resultNumeric"`
	ResultUnit    *string   `json:"resultUnit"`
}

type DispenseSummary struct {
	DispenseID     int64     `json:"dispenseId"`
	DispenseDate   time.Time `json:"dispenseDate"`
	RegimenCode    string    `json:"regimenCode"`
	DaysSupply     int       `json:"daysSupply"`
	NextRefillDate time.Time `json:"nextRefillDate"`
}

type AppointmentSummary struct {
	AppointmentID   int64     `json:"appointmentId"`
	ScheduledDate   time.Time `json:"scheduledDate"`
	AppointmentType string    `json:"appointmentType"`
	Status          string    `json:"status"`
}

type AdherenceSummary struct {
	AdherenceID      int64     `json:"adherenceId"`
	LogDate          time.Time `json:"logDate"`
	AdherencePercent float64   `json:"adherencePercent"`
	MethodUsed       string    `json:"methodUsed"`
}

type AlertSummary struct {
	AlertID     int64     `json:"alertId"`
	AlertType   string    `json:"alertType"`
	AlertLevel  string    `json:"alertLevel"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

// TimelineEvent is one entry of the merged care history.
type TimelineEvent struct {
	EventType string    `json:"eventType"`
	EventID   int64     `json:"eventId"`
	EventDate time.Time `json:"eventDate"`
	Title     string    `json:"title"`
	Detail    *string   `json:"detail"`
}

type TimelineFilter struct {
	Dates params.DateRange
	Limit int
}
