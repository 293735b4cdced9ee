package records

import (
	"slices"

	"github.com/samber/lo"
)

// FieldSet is a set of field names.
type FieldSet map[string]struct{}

// NewFieldSet returns a set holding the given fields.
func NewFieldSet(fields ...string) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// FieldsOf returns the set of field names present on the record.
func FieldsOf(r Record) FieldSet {
	return NewFieldSet(lo.Keys(r)...)
}

// Add inserts a field.
func (s FieldSet) Add(field string) {
	s[field] = struct{}{}
}

// Remove deletes a field.
func (s FieldSet) Remove(field string) {
	delete(s, field)
}

// Has reports whether the field is in the set.
func (s FieldSet) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// Len returns the number of fields.
func (s FieldSet) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(s))
	for f := range s {
		out[f] = struct{}{}
	}
	return out
}

// Union returns a new set with the fields of both sets.
func (s FieldSet) Union(other FieldSet) FieldSet {
	out := s.Clone()
	for f := range other {
		out[f] = struct{}{}
	}
	return out
}

// Sorted returns the fields in lexical order.
func (s FieldSet) Sorted() []string {
	fields := lo.Keys(s)
	slices.Sort(fields)
	return fields
}

// Diff returns the sorted fields only in s and the sorted fields only in other.
func (s FieldSet) Diff(other FieldSet) (onlyLeft, onlyRight []string) {
	onlyLeft, onlyRight = lo.Difference(s.Sorted(), other.Sorted())
	return onlyLeft, onlyRight
}

// Equal reports whether both sets hold the same fields.
func (s FieldSet) Equal(other FieldSet) bool {
	if len(s) != len(other) {
		return false
	}
	for f := range s {
		if _, ok := other[f]; !ok {
			return false
		}
	}
	return true
}
