package waivers_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parity/cmd/application"
	"github.com/agentstation/parity/cmd/parity/cmd/waivers"
)

func TestWaiversCommand(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		cmd := waivers.NewCommand(&application.Mock{})
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--stream", "owners"})
		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "activeSalesforceId")
		assert.Contains(t, out.String(), "property_hs_date_entered_*")
		assert.NotContains(t, out.String(), "stateChanges")
	})

	t.Run("json", func(t *testing.T) {
		cmd := waivers.NewCommand(&application.Mock{OutputFormatFunc: func() string { return "json" }})
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		require.NoError(t, cmd.Execute())

		var listing struct {
			Prefixes []map[string]any `json:"prefixes"`
			Fields   []map[string]any `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &listing))
		assert.Len(t, listing.Prefixes, 2)
		assert.NotEmpty(t, listing.Fields)
	})
}
