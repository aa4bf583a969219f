package regimen

import (
	"strings"
	"time"

	"github.com/hivcare/hivcare/internal/domain/pharmacy"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/pkg/nullable"
)

type Regimen struct {
	RegimenID   int64     `json:"regimenId"`
	RegimenCode string    `json:"regimenCode"`
	RegimenName string    `json:"regimenName"`
	Line        string    `json:"line"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Detail is a regimen with its most recent dispenses.
type Detail struct {
	*Regimen
	Dispenses []*pharmacy.Dispense `json:"dispenses"`
}

type CreateInput struct {
	RegimenCode string  `json:"regimenCode"`
	RegimenName string  `json:"regimenName"`
	Line        string  `json:"line"`
	Description *string `json:"description"`
}

func validLine(line string) error {
	if strings.TrimSpace(line) == "" {
		return apperr.InvalidInput("line is required")
	}
	return nil
}

func (in *CreateInput) Validate() error {
	in.RegimenCode = strings.TrimSpace(in.RegimenCode)
	in.RegimenName = strings.TrimSpace(in.RegimenName)
	if in.RegimenCode == "" || in.RegimenName == "" {
		return apperr.InvalidInput("regimenCode and regimenName are required")
	}
	return validLine(in.Line)
}

type Patch struct {
	RegimenCode nullable.Field[string] `json:"regimenCode"`
	RegimenName nullable.Field[string] `json:"regimenName"`
	Line        nullable.Field[string] `json:"line"`
	Description nullable.Field[string] `json:"description"`
}

func (p *Patch) Validate() error {
	for name, f := range map[string]nullable.Field[string]{"regimenCode": p.RegimenCode, "regimenName": p.RegimenName} {
		if f.Set && (f.Null || strings.TrimSpace(f.Value) == "") {
			return apperr.InvalidInput(name + " cannot be empty")
		}
	}
	if p.Line.Set {
		if p.Line.Null {
			return apperr.InvalidInput("line cannot be empty")
		}
		return validLine(p.Line.Value)
	}
	return nil
}

type ListFilter struct {
	Line   string
	Search string
}
