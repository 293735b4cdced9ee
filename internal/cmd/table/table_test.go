package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parity/internal/cmd/table"
	"github.com/agentstation/parity/pkg/reconciler"
	"github.com/agentstation/parity/pkg/records"
	"github.com/agentstation/parity/pkg/streams"
	"github.com/agentstation/parity/pkg/waivers"
)

func TestVerdictsToTableData(t *testing.T) {
	verdicts := []*reconciler.Verdict{
		{Stream: "owners", Stats: reconciler.Statistics{ExpectedRecords: 2, ActualRecords: 2, MatchedPairs: 2}},
		{Stream: "deals", Dropped: []records.Tuple{{3}}},
	}

	data := table.VerdictsToTableData(verdicts, false)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"owners", "pass", "2", "2", "2"}, data.Rows[0])
	assert.Equal(t, "FAIL", data.Rows[1][1])

	wide := table.VerdictsToTableData(verdicts, true)
	assert.Len(t, wide.Headers, 11)
	assert.Equal(t, "1", wide.Rows[1][5])

	failures := table.FailuresToTableData(verdicts)
	assert.Equal(t, [][]string{{"deals", "record (3) was not replicated"}}, failures.Rows)
}

func TestWaiversToTableData(t *testing.T) {
	data := table.WaiversToTableData(
		[]waivers.Entry{{Stream: "owners", Field: "activeSalesforceId", Direction: waivers.Missing}},
		[]waivers.Prefix{{Prefix: "property_hs_date_entered_", Rationale: "dynamic"}},
	)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"*", "property_hs_date_entered_*", "prefix", "dynamic"}, data.Rows[0])
	assert.Equal(t, []string{"owners", "activeSalesforceId", "missing", "-"}, data.Rows[1])
}

func TestStreamsToTableData(t *testing.T) {
	levels := [][]streams.Stream{
		{{Name: "companies", IdentityKey: []string{"companyId"}}},
		{{Name: "contacts_by_company", IdentityKey: []string{"company-id", "contact-id"}, DependsOn: "companies", ParentKey: "companyId"}},
	}
	data := table.StreamsToTableData(levels)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"1", "contacts_by_company", "company-id, contact-id", "-", "companies", "companyId"}, data.Rows[1])
}
