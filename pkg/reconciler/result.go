package reconciler

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/records"
)

// IdentityFailureKind distinguishes the two ways an expected record can fail
// to find its replicated counterpart.
type IdentityFailureKind string

const (
	// MissingRecord means no actual record has the expected identity.
	MissingRecord IdentityFailureKind = "missing"
	// DuplicateRecord means more than one actual record has the expected identity.
	DuplicateRecord IdentityFailureKind = "duplicate"
)

// IdentityFailure is an expected record that did not match exactly one actual record.
type IdentityFailure struct {
	Identity records.Tuple       `json:"identity" yaml:"identity"`
	Kind     IdentityFailureKind `json:"kind" yaml:"kind"`
	Matches  int                 `json:"matches" yaml:"matches"`
}

// FieldMismatch lists the unwaived field-name differences of one matched pair.
type FieldMismatch struct {
	Identity            records.Tuple `json:"identity" yaml:"identity"`
	MissingFromActual   []string      `json:"missing_from_actual,omitempty" yaml:"missing_from_actual,omitempty"`
	MissingFromExpected []string      `json:"missing_from_expected,omitempty" yaml:"missing_from_expected,omitempty"`
}

// ValueMismatch is a value-checked field whose values differ within a matched pair.
type ValueMismatch struct {
	Identity records.Tuple `json:"identity" yaml:"identity"`
	Field    string        `json:"field" yaml:"field"`
	Expected any           `json:"expected" yaml:"expected"`
	Actual   any           `json:"actual" yaml:"actual"`
}

// Statistics counts what a reconciliation looked at.
type Statistics struct {
	ExpectedRecords int `json:"expected_records" yaml:"expected_records"`
	ActualRecords   int `json:"actual_records" yaml:"actual_records"`
	MatchedPairs    int `json:"matched_pairs" yaml:"matched_pairs"`
	WaivedFields    int `json:"waived_fields" yaml:"waived_fields"`
}

// Verdict is the outcome of reconciling one stream.
type Verdict struct {
	Stream string `json:"stream" yaml:"stream"`

	// Dropped holds identities present in expected but not in actual.
	Dropped []records.Tuple `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	// Extra holds identities present in actual but not in expected.
	Extra []records.Tuple `json:"extra,omitempty" yaml:"extra,omitempty"`

	IdentityFailures []IdentityFailure         `json:"identity_failures,omitempty" yaml:"identity_failures,omitempty"`
	FieldMismatches  []FieldMismatch           `json:"field_mismatches,omitempty" yaml:"field_mismatches,omitempty"`
	ValueMismatches  []ValueMismatch           `json:"value_mismatches,omitempty" yaml:"value_mismatches,omitempty"`
	KeyErrors        []*errors.IdentityKeyError `json:"key_errors,omitempty" yaml:"key_errors,omitempty"`

	Stats    Statistics    `json:"stats" yaml:"stats"`
	Duration time.Duration `json:"duration" yaml:"duration"`

	startTime time.Time
}

func newVerdict(stream string) *Verdict {
	return &Verdict{Stream: stream, startTime: time.Now()}
}

// finalize records how long the reconciliation took.
func (v *Verdict) finalize() {
	v.Duration = time.Since(v.startTime)
}

// Passed reports whether the pipeline reproduced the stream faithfully:
// identity sets are equal, every expected record matched exactly one actual
// record, no matched pair has unwaived field or value differences, and every
// record had a usable identity key.
func (v *Verdict) Passed() bool {
	return len(v.Dropped) == 0 &&
		len(v.Extra) == 0 &&
		len(v.IdentityFailures) == 0 &&
		len(v.FieldMismatches) == 0 &&
		len(v.ValueMismatches) == 0 &&
		len(v.KeyErrors) == 0
}

// Summary returns a one-line description of the verdict.
func (v *Verdict) Summary() string {
	if v.Passed() {
		return fmt.Sprintf("%s: passed (%d records matched)", v.Stream, v.Stats.MatchedPairs)
	}

	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(v.Dropped), "dropped")
	add(len(v.Extra), "extra")
	add(v.countIdentity(MissingRecord), "missing")
	add(v.countIdentity(DuplicateRecord), "duplicated")
	add(len(v.FieldMismatches), "field mismatches")
	add(len(v.ValueMismatches), "value mismatches")
	add(len(v.KeyErrors), "key errors")
	return fmt.Sprintf("%s: failed (%s)", v.Stream, strings.Join(parts, ", "))
}

func (v *Verdict) countIdentity(kind IdentityFailureKind) int {
	n := 0
	for _, f := range v.IdentityFailures {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Failures returns one human-readable line per defect, in a stable order.
func (v *Verdict) Failures() []string {
	var lines []string
	for _, e := range v.KeyErrors {
		lines = append(lines, e.Error())
	}
	for _, t := range v.Dropped {
		lines = append(lines, fmt.Sprintf("record %s was not replicated", t))
	}
	for _, t := range v.Extra {
		lines = append(lines, fmt.Sprintf("record %s was replicated but not expected", t))
	}
	for _, f := range v.IdentityFailures {
		switch f.Kind {
		case DuplicateRecord:
			lines = append(lines, fmt.Sprintf("record %s matched %d replicated records", f.Identity, f.Matches))
		default:
			lines = append(lines, fmt.Sprintf("record %s matched no replicated record", f.Identity))
		}
	}
	for _, m := range v.FieldMismatches {
		if len(m.MissingFromActual) > 0 {
			lines = append(lines, fmt.Sprintf("record %s is missing fields: %s", m.Identity, strings.Join(m.MissingFromActual, ", ")))
		}
		if len(m.MissingFromExpected) > 0 {
			lines = append(lines, fmt.Sprintf("record %s has unexpected fields: %s", m.Identity, strings.Join(m.MissingFromExpected, ", ")))
		}
	}
	for _, m := range v.ValueMismatches {
		lines = append(lines, fmt.Sprintf("record %s field %s: expected %v, got %v", m.Identity, m.Field, m.Expected, m.Actual))
	}
	return lines
}
