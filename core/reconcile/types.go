package reconcile

import "sort"

// Classification is the bucket an identifier falls into during a pass.
type Classification string

const (
	// ClassNew marks an identifier present remotely but not locally.
	ClassNew Classification = "new"
	// ClassChanged marks an identifier present on both sides.
	ClassChanged Classification = "changed"
	// ClassDeleted marks an identifier present locally but gone remotely.
	ClassDeleted Classification = "deleted"
)

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	switch c {
	case ClassNew, ClassChanged, ClassDeleted:
		return true
	default:
		return false
	}
}

// Set is a set of identifiers.
type Set map[string]struct{}

// NewSet builds a set from the given identifiers.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// KeysOf returns the key set of an identifier-indexed map.
func KeysOf[V any](m map[string]V) Set {
	s := make(Set, len(m))
	for k := range m {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s Set) Add(id string) {
	s[id] = struct{}{}
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Result holds the three buckets of one reconciliation.
type Result struct {
	New     Set
	Changed Set
	Deleted Set
}

// Total returns the number of classified identifiers.
func (r Result) Total() int {
	return len(r.New) + len(r.Changed) + len(r.Deleted)
}

// Classify returns the bucket of id, or false if id was not classified.
func (r Result) Classify(id string) (Classification, bool) {
	switch {
	case r.New.Has(id):
		return ClassNew, true
	case r.Changed.Has(id):
		return ClassChanged, true
	case r.Deleted.Has(id):
		return ClassDeleted, true
	default:
		return "", false
	}
}

// Action is one planned staging operation.
type Action struct {
	// Identifier is the remote catalog's key for the record.
	Identifier string `json:"identifier"`

	// Classification is the bucket the identifier fell into.
	Classification Classification `json:"classification"`

	// PackageID is the dataset currently linked to the identifier.
	// Empty for new identifiers.
	PackageID string `json:"package_id,omitempty"`
}

// PlanSummary provides aggregate counts for a plan.
type PlanSummary struct {
	New     int `json:"new"`
	Changed int `json:"changed"`
	Deleted int `json:"deleted"`
	Total   int `json:"total"`
}

// Plan is the ordered list of staging actions for one pass.
type Plan struct {
	Actions []Action    `json:"actions"`
	Summary PlanSummary `json:"summary"`
}

// Empty reports whether the plan has nothing to stage.
func (p *Plan) Empty() bool {
	return len(p.Actions) == 0
}
