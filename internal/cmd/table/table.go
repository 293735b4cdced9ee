// Package table converts reconciliation results into rows for table output.
package table

import (
	"fmt"
	"strings"

	"github.com/agentstation/parity/pkg/reconciler"
	"github.com/agentstation/parity/pkg/streams"
	"github.com/agentstation/parity/pkg/waivers"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align
}

// VerdictsToTableData lists one row per stream. Wide adds the per-kind counts.
func VerdictsToTableData(verdicts []*reconciler.Verdict, wide bool) Data {
	headers := []string{"Stream", "Result", "Expected", "Actual", "Matched"}
	align := []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight}
	if wide {
		headers = append(headers, "Dropped", "Extra", "Identity", "Fields", "Values", "Waived")
		align = append(align, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight)
	}

	rows := make([][]string, 0, len(verdicts))
	for _, v := range verdicts {
		row := []string{
			v.Stream,
			result(v),
			fmt.Sprint(v.Stats.ExpectedRecords),
			fmt.Sprint(v.Stats.ActualRecords),
			fmt.Sprint(v.Stats.MatchedPairs),
		}
		if wide {
			row = append(row,
				fmt.Sprint(len(v.Dropped)),
				fmt.Sprint(len(v.Extra)),
				fmt.Sprint(len(v.IdentityFailures)),
				fmt.Sprint(len(v.FieldMismatches)),
				fmt.Sprint(len(v.ValueMismatches)),
				fmt.Sprint(v.Stats.WaivedFields),
			)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

func result(v *reconciler.Verdict) string {
	if v.Passed() {
		return "pass"
	}
	return "FAIL"
}

// FailuresToTableData lists every defect of the failed verdicts.
func FailuresToTableData(verdicts []*reconciler.Verdict) Data {
	var rows [][]string
	for _, v := range verdicts {
		for _, line := range v.Failures() {
			rows = append(rows, []string{v.Stream, line})
		}
	}
	return Data{Headers: []string{"Stream", "Failure"}, Rows: rows}
}

// WaiversToTableData lists prefix waivers first, then field waivers.
func WaiversToTableData(entries []waivers.Entry, prefixes []waivers.Prefix) Data {
	rows := make([][]string, 0, len(entries)+len(prefixes))
	for _, p := range prefixes {
		stream := p.Stream
		if stream == "" {
			stream = waivers.AllStreams
		}
		rows = append(rows, []string{stream, p.Prefix + "*", "prefix", dash(p.Rationale)})
	}
	for _, e := range entries {
		rows = append(rows, []string{e.Stream, e.Field, string(e.Direction), dash(e.Rationale)})
	}
	return Data{Headers: []string{"Stream", "Field", "Direction", "Rationale"}, Rows: rows}
}

// StreamsToTableData lists streams in dependency order with their level.
func StreamsToTableData(levels [][]streams.Stream) Data {
	var rows [][]string
	for i, level := range levels {
		for _, s := range level {
			rows = append(rows, []string{
				fmt.Sprint(i),
				s.Name,
				strings.Join(s.IdentityKey, ", "),
				dash(string(s.ReplicationMethod)),
				dash(s.DependsOn),
				dash(s.ParentKey),
			})
		}
	}
	return Data{
		Headers:         []string{"Level", "Stream", "Identity Key", "Replication", "Depends On", "Parent Key"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
