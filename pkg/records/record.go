// Package records defines the loosely-typed record model shared by the
// expected and actual sides of a reconciliation, along with identity-key
// extraction, captured pipeline output, and timestamp normalization.
package records

import (
	"slices"

	"github.com/samber/lo"

	"github.com/agentstation/parity/pkg/errors"
)

// Record is one entity as a mapping from field name to a loosely-typed value
// (string, number, bool, nil, nested map, or slice). It has no fixed schema.
type Record map[string]any

// Collection is an ordered sequence of records for one stream from one source.
// Order carries no meaning for comparison.
type Collection []Record

// Fields returns the record's field names in sorted order.
func (r Record) Fields() []string {
	fields := lo.Keys(r)
	slices.Sort(fields)
	return fields
}

// Has reports whether the field is present, regardless of its value.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Identity returns the record's identity tuple for the given key fields.
// A key field that is absent or null is an error; the tuple cannot be
// computed and the record must not be treated as matching anything.
func (r Record) Identity(key []string) (Tuple, error) {
	tuple := make(Tuple, len(key))
	for i, field := range key {
		value, ok := r[field]
		if !ok || value == nil {
			return nil, &errors.ValidationError{
				Field:   field,
				Message: "identity key value is missing or null",
			}
		}
		tuple[i] = value
	}
	return tuple, nil
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Clone returns a collection of shallow record copies.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, r := range c {
		out[i] = r.Clone()
	}
	return out
}

// Values returns the non-null values of field across the collection,
// deduplicated by value and in first-seen order.
func (c Collection) Values(field string) []any {
	seen := make(map[string]struct{}, len(c))
	var out []any
	for _, r := range c {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		k := canonical(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
