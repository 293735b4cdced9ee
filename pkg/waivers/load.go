package waivers

import (
	"io"
	"os"
	"slices"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/parity/internal/embedded"
	"github.com/agentstation/parity/pkg/errors"
)

// File is the YAML layout of a waiver table.
//
//	prefixes:
//	  - prefix: property_hs_date_entered_
//	    rationale: named after a stage id
//	streams:
//	  owners:
//	    missing:
//	      - rationale: Salesforce link is not replicated
//	        fields: [activeSalesforceId]
type File struct {
	Prefixes []Prefix                 `yaml:"prefixes"`
	Streams  map[string]StreamWaivers `yaml:"streams"`
}

// StreamWaivers groups one stream's waivers by direction.
type StreamWaivers struct {
	Missing []Group `yaml:"missing"`
	Extra   []Group `yaml:"extra"`
}

// Group is a set of fields waived for one shared reason.
type Group struct {
	Rationale string   `yaml:"rationale"`
	Fields    []string `yaml:"fields"`
}

// Entries flattens the file into field waivers, ordered by stream name.
func (f *File) Entries() []Entry {
	streams := make([]string, 0, len(f.Streams))
	for name := range f.Streams {
		streams = append(streams, name)
	}
	slices.Sort(streams)

	var entries []Entry
	for _, stream := range streams {
		sw := f.Streams[stream]
		entries = appendGroups(entries, stream, Missing, sw.Missing)
		entries = appendGroups(entries, stream, Extra, sw.Extra)
	}
	return entries
}

func appendGroups(entries []Entry, stream string, dir Direction, groups []Group) []Entry {
	for _, g := range groups {
		for _, field := range g.Fields {
			entries = append(entries, Entry{
				Stream:    stream,
				Field:     field,
				Direction: dir,
				Rationale: g.Rationale,
			})
		}
	}
	return entries
}

// Parse builds a registry from YAML data.
func Parse(data []byte, name string) (Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	r, err := New(f.Entries(), f.Prefixes)
	if err != nil {
		return nil, errors.NewConfigError("waivers", name, err)
	}
	return r, nil
}

// Load builds a registry from a YAML reader.
func Load(r io.Reader, name string) (Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	return Parse(data, name)
}

// LoadFile builds a registry from a YAML file.
func LoadFile(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

var (
	defaultOnce     sync.Once
	defaultRegistry Registry
)

// Default returns the built-in waiver table for the HubSpot connector.
func Default() Registry {
	defaultOnce.Do(func() {
		data, err := embedded.FS.ReadFile(embedded.WaiversFile)
		if err != nil {
			panic("embedded waiver table missing: " + err.Error())
		}
		r, err := Parse(data, embedded.WaiversFile)
		if err != nil {
			panic("embedded waiver table invalid: " + err.Error())
		}
		defaultRegistry = r
	})
	return defaultRegistry
}
