// Package waivers holds the declared, intentional exceptions to exact field-set
// comparison: fields known to be missing from replicated records, fields known
// to be replicated although never expected, and prefixes of dynamically-named
// fields whose exact names cannot be predicted.
package waivers

import (
	"slices"
	"strings"

	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/records"
)

// Direction says which side of a comparison a waived field may be absent from.
type Direction string

const (
	// Missing waives a field that is expected but never replicated.
	Missing Direction = "missing"
	// Extra waives a field that is replicated but never expected.
	Extra Direction = "extra"
)

// AllStreams is the stream name of a prefix waiver that applies everywhere.
const AllStreams = "*"

// Entry waives one field of one stream in one direction.
type Entry struct {
	Stream    string    `json:"stream" yaml:"stream"`
	Field     string    `json:"field" yaml:"field"`
	Direction Direction `json:"direction" yaml:"direction"`
	Rationale string    `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// Prefix waives one-sided fields whose names start with Prefix.
// An empty Stream or AllStreams applies the prefix to every stream.
type Prefix struct {
	Stream    string `json:"stream,omitempty" yaml:"stream,omitempty"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// Registry answers waiver lookups for a stream. Lookups for a stream without
// configuration return empty sets. Returned sets are copies; the registry
// never changes after construction.
type Registry interface {
	// Missing returns the fields waived as known missing from actual records.
	Missing(stream string) records.FieldSet

	// Extra returns the fields waived as known extra in actual records.
	Extra(stream string) records.FieldSet

	// Prefixes returns the dynamic field-name prefixes that apply to the stream.
	Prefixes(stream string) records.FieldSet

	// Rationale returns why a field is waived, or "" if it is not.
	Rationale(stream, field string, direction Direction) string

	// Entries returns every field waiver, ordered by stream, direction and field.
	Entries() []Entry

	// PrefixEntries returns every prefix waiver in declaration order.
	PrefixEntries() []Prefix
}

type fieldKey struct {
	stream    string
	field     string
	direction Direction
}

// registry is the default implementation of Registry.
type registry struct {
	missing    map[string]records.FieldSet
	extra      map[string]records.FieldSet
	prefixes   map[string]records.FieldSet
	universal  records.FieldSet
	rationales map[fieldKey]string
	entries    []Entry
	prefixList []Prefix
}

// New builds a registry from field and prefix waivers. Duplicate entries are
// merged; the first rationale wins.
func New(entries []Entry, prefixes []Prefix) (Registry, error) {
	r := &registry{
		missing:    make(map[string]records.FieldSet),
		extra:      make(map[string]records.FieldSet),
		prefixes:   make(map[string]records.FieldSet),
		universal:  records.NewFieldSet(),
		rationales: make(map[fieldKey]string),
	}

	for _, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, err
		}
		key := fieldKey{stream: e.Stream, field: e.Field, direction: e.Direction}
		if _, dup := r.rationales[key]; dup {
			continue
		}
		r.rationales[key] = e.Rationale
		r.entries = append(r.entries, e)

		table := r.missing
		if e.Direction == Extra {
			table = r.extra
		}
		if table[e.Stream] == nil {
			table[e.Stream] = records.NewFieldSet()
		}
		table[e.Stream].Add(e.Field)
	}

	for _, p := range prefixes {
		if strings.TrimSpace(p.Prefix) == "" {
			return nil, &errors.ValidationError{Field: "prefix", Value: p, Message: "cannot be empty"}
		}
		r.prefixList = append(r.prefixList, p)
		if p.Stream == "" || p.Stream == AllStreams {
			r.universal.Add(p.Prefix)
			continue
		}
		if r.prefixes[p.Stream] == nil {
			r.prefixes[p.Stream] = records.NewFieldSet()
		}
		r.prefixes[p.Stream].Add(p.Prefix)
	}

	slices.SortStableFunc(r.entries, func(a, b Entry) int {
		if c := strings.Compare(a.Stream, b.Stream); c != 0 {
			return c
		}
		if c := strings.Compare(string(a.Direction), string(b.Direction)); c != 0 {
			return c
		}
		return strings.Compare(a.Field, b.Field)
	})

	return r, nil
}

// Empty returns a registry without any waivers.
func Empty() Registry {
	r, _ := New(nil, nil)
	return r
}

func validateEntry(e Entry) error {
	switch {
	case strings.TrimSpace(e.Stream) == "":
		return &errors.ValidationError{Field: "stream", Value: e, Message: "cannot be empty"}
	case strings.TrimSpace(e.Field) == "":
		return &errors.ValidationError{Field: "field", Value: e, Message: "cannot be empty"}
	case e.Direction != Missing && e.Direction != Extra:
		return &errors.ValidationError{
			Field:   "direction",
			Value:   e.Direction,
			Message: `must be "missing" or "extra"`,
		}
	}
	return nil
}

// Missing returns the fields waived as known missing from actual records.
func (r *registry) Missing(stream string) records.FieldSet {
	return r.missing[stream].Clone()
}

// Extra returns the fields waived as known extra in actual records.
func (r *registry) Extra(stream string) records.FieldSet {
	return r.extra[stream].Clone()
}

// Prefixes returns the universal prefixes plus those declared for the stream.
func (r *registry) Prefixes(stream string) records.FieldSet {
	return r.universal.Union(r.prefixes[stream])
}

// Rationale returns why a field is waived, or "" if it is not.
func (r *registry) Rationale(stream, field string, direction Direction) string {
	return r.rationales[fieldKey{stream: stream, field: field, direction: direction}]
}

// Entries returns every field waiver, ordered by stream, direction and field.
func (r *registry) Entries() []Entry {
	return slices.Clone(r.entries)
}

// PrefixEntries returns every prefix waiver in declaration order.
func (r *registry) PrefixEntries() []Prefix {
	return slices.Clone(r.prefixList)
}

// MatchesPrefix reports whether field starts with any of the prefixes.
func MatchesPrefix(field string, prefixes records.FieldSet) bool {
	for p := range prefixes {
		if strings.HasPrefix(field, p) {
			return true
		}
	}
	return false
}
