// Package county normalizes county names so records from different sources
// can be matched.
package county

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const suffix = "county"

var folder = cases.Fold()

// Normalize case-folds name, collapses whitespace, and strips trailing
// "county" tokens. A name that is only "county" is kept as is.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	folded := norm.NFC.String(folder.String(norm.NFC.String(name)))
	fields := strings.Fields(folded)
	for len(fields) > 1 && fields[len(fields)-1] == suffix {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// Set is a set of normalized county names.
type Set map[string]struct{}

// NewSet normalizes names into a Set. Blank names are ignored.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		if k := Normalize(n); k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

// Contains reports whether name, after normalization, is in the set.
func (s Set) Contains(name string) bool {
	_, ok := s[Normalize(name)]
	return ok
}

// Len returns the number of names in the set.
func (s Set) Len() int { return len(s) }
