// Package streams describes the logical entity types being reconciled: their
// identity keys and the dependencies between streams whose expected records
// are derived from another stream's expected records.
package streams

import (
	"strings"

	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/records"
)

// ReplicationMethod is how the pipeline replicates a stream.
type ReplicationMethod string

const (
	// Incremental streams replicate changes since a bookmark.
	Incremental ReplicationMethod = "INCREMENTAL"
	// FullTable streams replicate every record on every run.
	FullTable ReplicationMethod = "FULL_TABLE"
)

// Stream is a named entity type with the ordered identity key its records are
// matched on.
type Stream struct {
	Name              string            `json:"name" yaml:"name"`
	IdentityKey       []string          `json:"identity_key" yaml:"identity_key"`
	ReplicationMethod ReplicationMethod `json:"replication_method,omitempty" yaml:"replication_method,omitempty"`

	// DependsOn names the stream whose expected records must be fetched
	// first because this stream's expected records are queried per parent.
	DependsOn string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`

	// ParentKey is the parent record field whose values select this
	// stream's records, e.g. companyId for contacts fetched per company.
	ParentKey string `json:"parent_key,omitempty" yaml:"parent_key,omitempty"`

	// ParentField is this stream's field holding the parent's ParentKey
	// value, e.g. company-id. When set, records read in bulk are narrowed
	// to the fetched parents.
	ParentField string `json:"parent_field,omitempty" yaml:"parent_field,omitempty"`
}

// Validate checks the stream definition on its own.
func (s Stream) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &errors.ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if len(s.IdentityKey) == 0 {
		return &errors.ValidationError{Field: "identity_key", Value: s.Name, Message: "stream " + s.Name + " needs at least one key field"}
	}
	seen := make(map[string]bool, len(s.IdentityKey))
	for _, f := range s.IdentityKey {
		if strings.TrimSpace(f) == "" {
			return &errors.ValidationError{Field: "identity_key", Value: s.Name, Message: "key field names cannot be empty"}
		}
		if seen[f] {
			return &errors.ValidationError{Field: "identity_key", Value: s.Name, Message: "duplicate key field " + f}
		}
		seen[f] = true
	}
	switch s.ReplicationMethod {
	case "", Incremental, FullTable:
	default:
		return &errors.ValidationError{Field: "replication_method", Value: s.ReplicationMethod, Message: "must be INCREMENTAL or FULL_TABLE"}
	}
	if s.DependsOn == s.Name && s.Name != "" {
		return &errors.CycleError{Streams: []string{s.Name}}
	}
	if s.DependsOn != "" && s.ParentKey == "" {
		return &errors.ValidationError{Field: "parent_key", Value: s.Name, Message: "required when depends_on is set"}
	}
	if s.ParentField != "" && s.DependsOn == "" {
		return &errors.ValidationError{Field: "parent_field", Value: s.Name, Message: "only valid with depends_on"}
	}
	return nil
}

// OfParent reports whether r belongs to one of the parents. Without a
// ParentField every record does.
func (s Stream) OfParent(r records.Record, parentIDs []any) bool {
	if s.ParentField == "" {
		return true
	}
	v, ok := r[s.ParentField]
	if !ok || v == nil {
		return false
	}
	for _, id := range parentIDs {
		if records.SameValue(v, id) {
			return true
		}
	}
	return false
}

// Derived reports whether the stream's expected records come from a parent stream.
func (s Stream) Derived() bool {
	return s.DependsOn != ""
}
