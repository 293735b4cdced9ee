package streams_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/records"
	"github.com/agentstation/parity/pkg/streams"
)

func names(ss []streams.Stream) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Name
	}
	return out
}

func TestStreamValidate(t *testing.T) {
	tests := []struct {
		name   string
		stream streams.Stream
		field  string
	}{
		{"no name", streams.Stream{IdentityKey: []string{"id"}}, "name"},
		{"no key", streams.Stream{Name: "a"}, "identity_key"},
		{"blank key field", streams.Stream{Name: "a", IdentityKey: []string{""}}, "identity_key"},
		{"duplicate key field", streams.Stream{Name: "a", IdentityKey: []string{"id", "id"}}, "identity_key"},
		{"bad method", streams.Stream{Name: "a", IdentityKey: []string{"id"}, ReplicationMethod: "LOG_BASED"}, "replication_method"},
		{"dependency without parent key", streams.Stream{Name: "a", IdentityKey: []string{"id"}, DependsOn: "b"}, "parent_key"},
		{"parent field without dependency", streams.Stream{Name: "a", IdentityKey: []string{"id"}, ParentField: "b-id"}, "parent_field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stream.Validate()
			var vErr *errors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	t.Run("self dependency is a cycle", func(t *testing.T) {
		err := streams.Stream{Name: "a", IdentityKey: []string{"id"}, DependsOn: "a", ParentKey: "id"}.Validate()
		assert.True(t, errors.IsCycle(err))
	})
}

func TestNewCatalog(t *testing.T) {
	t.Run("duplicate stream", func(t *testing.T) {
		_, err := streams.NewCatalog(
			streams.Stream{Name: "a", IdentityKey: []string{"id"}},
			streams.Stream{Name: "a", IdentityKey: []string{"id"}},
		)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("unknown dependency", func(t *testing.T) {
		_, err := streams.NewCatalog(
			streams.Stream{Name: "child", IdentityKey: []string{"id"}, DependsOn: "parent", ParentKey: "id"},
		)
		var depErr *errors.DependencyError
		require.ErrorAs(t, err, &depErr)
		assert.Equal(t, "parent", depErr.Dependency)
	})

	t.Run("get and names", func(t *testing.T) {
		c, err := streams.NewCatalog(
			streams.Stream{Name: "b", IdentityKey: []string{"id"}},
			streams.Stream{Name: "a", IdentityKey: []string{"k1", "k2"}},
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, c.Names())

		a, err := c.Get("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"k1", "k2"}, a.IdentityKey)

		a.IdentityKey[0] = "mutated"
		again, _ := c.Get("a")
		assert.Equal(t, "k1", again.IdentityKey[0])

		_, err = c.Get("zzz")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestCatalogLevels(t *testing.T) {
	c, err := streams.NewCatalog(
		streams.Stream{Name: "companies", IdentityKey: []string{"companyId"}},
		streams.Stream{Name: "contacts_by_company", IdentityKey: []string{"company-id", "contact-id"}, DependsOn: "companies", ParentKey: "companyId"},
		streams.Stream{Name: "notes_by_contact", IdentityKey: []string{"noteId"}, DependsOn: "contacts_by_company", ParentKey: "contact-id"},
		streams.Stream{Name: "deals", IdentityKey: []string{"dealId"}},
		streams.Stream{Name: "owners", IdentityKey: []string{"ownerId"}},
	)
	require.NoError(t, err)

	t.Run("producers come before consumers", func(t *testing.T) {
		levels, err := c.Levels(c.Names())
		require.NoError(t, err)
		require.Len(t, levels, 3)
		assert.Equal(t, []string{"companies", "deals", "owners"}, names(levels[0]))
		assert.Equal(t, []string{"contacts_by_company"}, names(levels[1]))
		assert.Equal(t, []string{"notes_by_contact"}, names(levels[2]))
	})

	t.Run("dependencies of selected streams are pulled in", func(t *testing.T) {
		ordered, err := c.Order([]string{"notes_by_contact"})
		require.NoError(t, err)
		assert.Equal(t, []string{"companies", "contacts_by_company", "notes_by_contact"}, names(ordered))
	})

	t.Run("unknown stream", func(t *testing.T) {
		_, err := c.Levels([]string{"tickets"})
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestCatalogCycle(t *testing.T) {
	c, err := streams.NewCatalog(
		streams.Stream{Name: "a", IdentityKey: []string{"id"}, DependsOn: "b", ParentKey: "id"},
		streams.Stream{Name: "b", IdentityKey: []string{"id"}, DependsOn: "a", ParentKey: "id"},
		streams.Stream{Name: "c", IdentityKey: []string{"id"}},
	)
	require.NoError(t, err)

	_, err = c.Order([]string{"a", "c"})
	var cycle *errors.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "b"}, cycle.Streams)
}

func TestCatalogSelect(t *testing.T) {
	c := streams.Default()

	selected, err := c.Select(nil, []string{"contacts_by_company", "owners", "subscription_changes"})
	require.NoError(t, err)
	assert.NotContains(t, selected, "owners")
	assert.Contains(t, selected, "deals")
	assert.Len(t, selected, len(c.Names())-3)

	selected, err = c.Select([]string{"owners", "deals", "owners"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"deals", "owners"}, selected)

	_, err = c.Select([]string{"tickets"}, nil)
	assert.True(t, errors.IsNotFound(err))
	_, err = c.Select(nil, []string{"tickets"})
	assert.True(t, errors.IsNotFound(err))
}

func TestDefaultCatalog(t *testing.T) {
	c := streams.Default()
	assert.Len(t, c.Names(), 13)

	owners, err := c.Get("owners")
	require.NoError(t, err)
	assert.Equal(t, []string{"ownerId"}, owners.IdentityKey)

	cbc, err := c.Get("contacts_by_company")
	require.NoError(t, err)
	assert.True(t, cbc.Derived())
	assert.Equal(t, "companies", cbc.DependsOn)
	assert.Equal(t, "companyId", cbc.ParentKey)
	assert.Equal(t, "company-id", cbc.ParentField)

	ordered, err := c.Order(c.Names())
	require.NoError(t, err)
	order := names(ordered)
	assert.Less(t, indexOf(order, "companies"), indexOf(order, "contacts_by_company"))
	assert.Equal(t, "contacts_by_company", order[len(order)-1])
}

func TestParse(t *testing.T) {
	c, err := streams.Parse([]byte(`
streams:
  - name: widgets
    identity_key: [id]
    replication_method: FULL_TABLE
`), "inline.yaml")
	require.NoError(t, err)
	w, err := c.Get("widgets")
	require.NoError(t, err)
	assert.Equal(t, streams.FullTable, w.ReplicationMethod)

	_, err = streams.Parse([]byte("streams:\n  - name: bad\n"), "bad.yaml")
	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.True(t, errors.IsValidationError(err))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestStreamOfParent(t *testing.T) {
	s := streams.Stream{Name: "contacts_by_company", IdentityKey: []string{"company-id", "contact-id"},
		DependsOn: "companies", ParentKey: "companyId", ParentField: "company-id"}
	parents := []any{101, json.Number("102")}

	assert.True(t, s.OfParent(records.Record{"company-id": json.Number("101")}, parents))
	assert.True(t, s.OfParent(records.Record{"company-id": 102.0}, parents))
	assert.False(t, s.OfParent(records.Record{"company-id": 999}, parents))
	assert.False(t, s.OfParent(records.Record{"company-id": "101"}, parents), "strings never equal numbers")
	assert.False(t, s.OfParent(records.Record{"contact-id": 1}, parents))
	assert.False(t, s.OfParent(records.Record{"company-id": 101}, nil))

	s.ParentField = ""
	assert.True(t, s.OfParent(records.Record{"company-id": 999}, parents))
}
