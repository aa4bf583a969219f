// Package pharmacy records ARV dispenses and tracks refill due dates.
package pharmacy

import (
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/nullable"
)

type RegimenRef struct {
	RegimenID   int64  `json:"regimenId"`
	RegimenCode string `json:"regimenCode"`
	RegimenName string `json:"regimenName"`
	Line        string `json:"line"`
}

type Dispense struct {
	DispenseID        int64             `json:"dispenseId"`
	PatientID         int64             `json:"patientId"`
	RegimenID         int64             `json:"regimenId"`
	DispensedBy       int64             `json:"dispensedBy"`
	DispenseDate      time.Time         `json:"dispenseDate"`
	DaysSupply        int               `json:"daysSupply"`
	QuantityDispensed *int              `json:"quantityDispensed"`
	NextRefillDate    time.Time         `json:"nextRefillDate"`
	Notes             *string           `json:"notes"`
	CreatedAt         time.Time         `json:"createdAt"`
	Patient           person.PatientRef `json:"patient"`
	Regimen           RegimenRef        `json:"regimen"`
	DispensedByStaff  *person.StaffRef  `json:"dispensedByStaff"`
}

// OverdueRefill is a patient's most recent dispense whose refill date has
// passed.
type OverdueRefill struct {
	*Dispense
	DaysOverdue int `json:"daysOverdue"`
}

// NextRefill is the day the supply handed out on dispensed runs out.
func NextRefill(dispensed time.Time, daysSupply int) time.Time {
	return dispensed.AddDate(0, 0, daysSupply)
}

type CreateInput struct {
	PatientID         int64         `json:"patientId"`
	RegimenID         int64         `json:"regimenId"`
	DispenseDate      nullable.Date `json:"dispenseDate"`
	DaysSupply        int           `json:"daysSupply"`
	QuantityDispensed *int          `json:"quantityDispensed"`
	Notes             *string       `json:"notes"`

	DispensedBy    int64     `json:"-"`
	NextRefillDate time.Time `json:"-"`
}

func (in *CreateInput) Validate() error {
	switch {
	case in.PatientID <= 0:
		return apperr.InvalidInput("patientId is required")
	case in.RegimenID <= 0:
		return apperr.InvalidInput("regimenId is required")
	case in.DispenseDate.IsZero():
		return apperr.InvalidInput("dispenseDate is required")
	case in.DaysSupply <= 0:
		return apperr.InvalidInput("daysSupply must be a positive number of days")
	case in.QuantityDispensed != nil && *in.QuantityDispensed < 0:
		return apperr.InvalidInput("quantityDispensed cannot be negative")
	case in.DispensedBy <= 0:
		return apperr.InvalidInput("Dispensing staff member is required")
	}
	return nil
}

type Patch struct {
	RegimenID         nullable.Field[int64]         `json:"regimenId"`
	DispenseDate      nullable.Field[nullable.Date] `json:"dispenseDate"`
	DaysSupply        nullable.Field[int]           `json:"daysSupply"`
	QuantityDispensed nullable.Field[int]           `json:"quantityDispensed"`
	Notes             nullable.Field[string]        `json:"notes"`
}

// RecomputesRefill reports whether the patch moves the next refill date.
func (p *Patch) RecomputesRefill() bool {
	return p.DispenseDate.Set || p.DaysSupply.Set
}

func (p *Patch) Validate() error {
	if p.RegimenID.Set && (p.RegimenID.Null || p.RegimenID.Value <= 0) {
		return apperr.InvalidInput("regimenId cannot be empty")
	}
	if p.DispenseDate.Set && p.DispenseDate.Null {
		return apperr.InvalidInput("dispenseDate cannot be empty")
	}
	if p.DaysSupply.Set && (p.DaysSupply.Null || p.DaysSupply.Value <= 0) {
		return apperr.InvalidInput("daysSupply must be a positive number of days")
	}
	if p.QuantityDispensed.Valid() && p.QuantityDispensed.Value < 0 {
		return apperr.InvalidInput("quantityDispensed cannot be negative")
	}
	return nil
}

type ListFilter struct {
	PatientID *int64
	StaffID   *int64
	RegimenID *int64
	Dates     params.DateRange
}
