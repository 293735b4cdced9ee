package reconciler

import (
	"github.com/agentstation/parity/pkg/records"
	"github.com/agentstation/parity/pkg/waivers"
)

// compareFields compares the field names of a matched pair net of waivers.
// It returns nil when the adjusted sets agree, along with the number of
// fields a waiver accounted for.
//
// Extra waivers are added to the expected side unconditionally. Missing
// waivers are added to the actual side only for fields this expected record
// actually carries. Fields matching a prefix waiver are dropped from
// whichever side holds them alone; a field on both sides stays compared.
func compareFields(expected, actual records.Record, missing, extra, prefixes records.FieldSet) (*FieldMismatch, int) {
	expFields := records.FieldsOf(expected)
	actFields := records.FieldsOf(actual)

	waived := 0
	expAdj := expFields.Union(extra)
	for f := range extra {
		if actFields.Has(f) && !expFields.Has(f) {
			waived++
		}
	}

	actAdj := actFields.Clone()
	for f := range missing {
		if expFields.Has(f) {
			if !actFields.Has(f) {
				waived++
			}
			actAdj.Add(f)
		}
	}

	if len(prefixes) > 0 {
		for f := range expAdj.Clone() {
			if !actAdj.Has(f) && waivers.MatchesPrefix(f, prefixes) {
				expAdj.Remove(f)
				waived++
			}
		}
		for f := range actAdj.Clone() {
			if !expAdj.Has(f) && waivers.MatchesPrefix(f, prefixes) {
				actAdj.Remove(f)
				waived++
			}
		}
	}

	if expAdj.Equal(actAdj) {
		return nil, waived
	}
	onlyExpected, onlyActual := expAdj.Diff(actAdj)
	return &FieldMismatch{
		MissingFromActual:   onlyExpected,
		MissingFromExpected: onlyActual,
	}, waived
}
