package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// District is a congressional district expressed as the set of counties it covers.
type District struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	State    string   `json:"state" yaml:"state"`
	Counties []string `json:"counties" yaml:"counties"`
}

// Validate checks the fields needed to query and join a district.
func (d District) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return eris.New("model: district id is required")
	}
	if len(strings.TrimSpace(d.State)) != 2 {
		return eris.Errorf("model: district %s: state must be a two-letter code, got %q", d.ID, d.State)
	}
	if len(d.Counties) == 0 {
		return eris.Errorf("model: district %s: at least one county is required", d.ID)
	}
	for i, c := range d.Counties {
		if strings.TrimSpace(c) == "" {
			return eris.Errorf("model: district %s: county %d is blank", d.ID, i)
		}
	}
	return nil
}

// DisplayName returns Name, falling back to ID.
func (d District) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}
