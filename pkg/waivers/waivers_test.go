package waivers_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/records"
	"github.com/agentstation/parity/pkg/waivers"
)

func TestRegistryLookups(t *testing.T) {
	reg, err := waivers.New(
		[]waivers.Entry{
			{Stream: "owners", Field: "activeSalesforceId", Direction: waivers.Missing, Rationale: "not replicated"},
			{Stream: "deals", Field: "imports", Direction: waivers.Missing},
			{Stream: "deals", Field: "property_x", Direction: waivers.Extra, Rationale: "null object"},
			{Stream: "owners", Field: "activeSalesforceId", Direction: waivers.Missing, Rationale: "duplicate"},
		},
		[]waivers.Prefix{
			{Prefix: "property_hs_date_entered_"},
			{Stream: waivers.AllStreams, Prefix: "property_hs_date_exited_"},
			{Stream: "deals", Prefix: "dyn_"},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"activeSalesforceId"}, reg.Missing("owners").Sorted())
	assert.Equal(t, []string{"imports"}, reg.Missing("deals").Sorted())
	assert.Equal(t, []string{"property_x"}, reg.Extra("deals").Sorted())
	assert.Equal(t, "not replicated", reg.Rationale("owners", "activeSalesforceId", waivers.Missing), "first rationale wins")
	assert.Empty(t, reg.Rationale("owners", "activeSalesforceId", waivers.Extra))

	assert.Equal(t,
		[]string{"dyn_", "property_hs_date_entered_", "property_hs_date_exited_"},
		reg.Prefixes("deals").Sorted())
	assert.Equal(t,
		[]string{"property_hs_date_entered_", "property_hs_date_exited_"},
		reg.Prefixes("owners").Sorted())

	entries := reg.Entries()
	require.Len(t, entries, 3, "duplicates are merged")
	assert.Equal(t, "deals", entries[0].Stream)
	assert.Equal(t, waivers.Extra, entries[0].Direction)
	assert.Len(t, reg.PrefixEntries(), 3)
}

func TestRegistryUnknownStream(t *testing.T) {
	reg := waivers.Default()
	assert.Equal(t, 0, reg.Missing("no_such_stream").Len())
	assert.Equal(t, 0, reg.Extra("no_such_stream").Len())
	assert.Equal(t, 2, reg.Prefixes("no_such_stream").Len(), "universal prefixes still apply")
}

func TestRegistryReturnsCopies(t *testing.T) {
	reg := waivers.Default()
	missing := reg.Missing("owners")
	missing.Add("injected")
	missing.Remove("activeSalesforceId")

	assert.True(t, reg.Missing("owners").Has("activeSalesforceId"))
	assert.False(t, reg.Missing("owners").Has("injected"))

	prefixes := reg.Prefixes("deals")
	prefixes.Add("x_")
	assert.False(t, reg.Prefixes("deals").Has("x_"))
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries []waivers.Entry
		prefix  []waivers.Prefix
		field   string
	}{
		{"empty stream", []waivers.Entry{{Field: "a", Direction: waivers.Missing}}, nil, "stream"},
		{"empty field", []waivers.Entry{{Stream: "a", Direction: waivers.Missing}}, nil, "field"},
		{"bad direction", []waivers.Entry{{Stream: "a", Field: "b", Direction: "sideways"}}, nil, "direction"},
		{"empty prefix", nil, []waivers.Prefix{{Prefix: " "}}, "prefix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := waivers.New(tt.entries, tt.prefix)
			require.Error(t, err)
			var vErr *errors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestDefaultTable(t *testing.T) {
	reg := waivers.Default()

	assert.Equal(t, []string{"activeSalesforceId"}, reg.Missing("owners").Sorted())
	assert.Equal(t, []string{"property_hs_date_entered_1258834"}, reg.Extra("deals").Sorted())
	assert.Len(t, reg.Missing("forms").Sorted(), 19)
	assert.Len(t, reg.Missing("email_events").Sorted(), 10)
	assert.Len(t, reg.Missing("workflows").Sorted(), 8)
	assert.Equal(t, []string{"normalizedEmailId"}, reg.Missing("subscription_changes").Sorted())
	assert.Equal(t,
		[]string{"property_hs_date_entered_", "property_hs_date_exited_"},
		reg.Prefixes("contacts").Sorted())
	assert.Contains(t, reg.Rationale("owners", "activeSalesforceId", waivers.Missing), "TDL-15000")
	assert.Same(t, reg, waivers.Default())
}

func TestLoad(t *testing.T) {
	data := `
prefixes:
  - prefix: dyn_
    stream: widgets
streams:
  widgets:
    missing:
      - rationale: upstream bug
        fields: [a, b]
    extra:
      - fields: [c]
`
	reg, err := waivers.Load(strings.NewReader(data), "inline.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reg.Missing("widgets").Sorted())
	assert.Equal(t, []string{"c"}, reg.Extra("widgets").Sorted())
	assert.Equal(t, []string{"dyn_"}, reg.Prefixes("widgets").Sorted())
	assert.Equal(t, 0, reg.Prefixes("gadgets").Len())
	assert.Equal(t, "upstream bug", reg.Rationale("widgets", "b", waivers.Missing))

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "waivers.yaml")
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
		fromFile, err := waivers.LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, reg.Entries(), fromFile.Entries())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := waivers.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		var ioErr *errors.IOError
		require.ErrorAs(t, err, &ioErr)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := waivers.Parse([]byte("streams: [unclosed"), "bad.yaml")
		var pErr *errors.ParseError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "bad.yaml", pErr.File)
	})

	t.Run("invalid entry", func(t *testing.T) {
		_, err := waivers.Parse([]byte("streams:\n  w:\n    missing:\n      - fields: ['']\n"), "bad.yaml")
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestMatchesPrefix(t *testing.T) {
	prefixes := records.NewFieldSet("property_hs_date_entered_", "property_hs_date_exited_")
	assert.True(t, waivers.MatchesPrefix("property_hs_date_entered_123", prefixes))
	assert.True(t, waivers.MatchesPrefix("property_hs_date_exited_", prefixes))
	assert.False(t, waivers.MatchesPrefix("property_hs_date_modified", prefixes))
	assert.False(t, waivers.MatchesPrefix("anything", records.NewFieldSet()))
}
