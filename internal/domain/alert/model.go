package alert

import (
	"time"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
)

const (
	LevelCritical = "Critical"
	LevelHigh     = "High"
	LevelMedium   = "Medium"
	LevelLow      = "Low"
)

var levels = []string{LevelCritical, LevelHigh, LevelMedium, LevelLow}

// levelRank orders alerts most severe first.
func levelRank(level string) int {
	for i, l := range levels {
		if l == level {
			return i
		}
	}
	return len(levels)
}

type Alert struct {
	AlertID     int64             `json:"alertId"`
	PatientID   int64             `json:"patientId"`
	AlertType   string            `json:"alertType"`
	AlertLevel  string            `json:"alertLevel"`
	Message     string            `json:"message"`
	TriggeredAt time.Time         `json:"triggeredAt"`
	IsResolved  bool              `json:"isResolved"`
	ResolvedAt  *time.Time        `json:"resolvedAt"`
	ResolvedBy  *int64            `json:"resolvedBy"`
	Patient     person.PatientRef `json:"patient"`
	Resolver    *person.StaffRef  `json:"resolver,omitempty"`
}

type ListFilter struct {
	PatientID  *int64
	AlertType  string
	AlertLevel string
	IsResolved *bool
}

func (f ListFilter) Validate() error {
	if f.AlertLevel != "" && levelRank(f.AlertLevel) == len(levels) {
		return apperr.InvalidInput("alertLevel must be one of Critical, High, Medium, Low")
	}
	return nil
}

// Resolution is the state written by resolve and unresolve.
type Resolution struct {
	Resolved bool
	At       *time.Time
	By       *int64
}
