// Package district resolves congressional districts to the counties they cover.
package district

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fedreturn/internal/model"
)

// DefaultID is the district used when none is configured.
const DefaultID = "NY-21"

// NY21 is New York's 21st congressional district.
var NY21 = model.District{
	ID:    "NY-21",
	Name:  "NY-21",
	State: "NY",
	Counties: []string{
		"Clinton County",
		"Essex County",
		"Franklin County",
		"Jefferson County",
		"Lewis County",
		"St. Lawrence County",
		"Warren County",
		"Washington County",
		"Hamilton County",
		"Fulton County",
		"Montgomery County",
		"Schoharie County",
	},
}

// Registry holds districts keyed by upper-cased ID.
type Registry struct {
	districts map[string]model.District
}

// NewRegistry returns a registry seeded with the built-in districts.
func NewRegistry() *Registry {
	r := &Registry{districts: make(map[string]model.District)}
	r.districts[key(NY21.ID)] = NY21
	return r
}

// Add validates d and registers it, replacing any district with the same ID.
func (r *Registry) Add(d model.District) error {
	if err := d.Validate(); err != nil {
		return eris.Wrap(err, "district: add")
	}
	d.State = strings.ToUpper(strings.TrimSpace(d.State))
	r.districts[key(d.ID)] = d
	return nil
}

// Lookup resolves id case-insensitively.
func (r *Registry) Lookup(id string) (model.District, error) {
	d, ok := r.districts[key(id)]
	if !ok {
		return model.District{}, eris.Errorf("district: unknown district %q", id)
	}
	return d, nil
}

// All returns every district sorted by ID.
func (r *Registry) All() []model.District {
	out := make([]model.District, 0, len(r.districts))
	for _, d := range r.districts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fileFormat struct {
	Districts []model.District `yaml:"districts"`
}

// LoadFile reads a YAML file of districts and adds them to the registry.
//
//	districts:
//	  - id: VT-AL
//	    state: VT
//	    counties: [Chittenden, Addison]
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "district: read %s", path)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return eris.Wrapf(err, "district: parse %s", path)
	}
	for _, d := range f.Districts {
		if err := r.Add(d); err != nil {
			return eris.Wrapf(err, "district: load %s", path)
		}
	}
	return nil
}

func key(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
