package streams

import (
	"io"
	"os"
	"slices"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/parity/internal/embedded"
	"github.com/agentstation/parity/pkg/errors"
)

// Catalog is an immutable set of stream definitions with resolvable dependencies.
type Catalog struct {
	streams map[string]Stream
}

// NewCatalog validates the streams and their dependencies.
func NewCatalog(streams ...Stream) (*Catalog, error) {
	c := &Catalog{streams: make(map[string]Stream, len(streams))}
	for _, s := range streams {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.streams[s.Name]; dup {
			return nil, &errors.ValidationError{Field: "name", Value: s.Name, Message: "duplicate stream " + s.Name}
		}
		s.IdentityKey = slices.Clone(s.IdentityKey)
		c.streams[s.Name] = s
	}
	for _, s := range c.streams {
		if s.DependsOn == "" {
			continue
		}
		if _, ok := c.streams[s.DependsOn]; !ok {
			return nil, &errors.DependencyError{Stream: s.Name, Dependency: s.DependsOn, Message: "not in catalog"}
		}
	}
	return c, nil
}

// Get returns the named stream.
func (c *Catalog) Get(name string) (Stream, error) {
	s, ok := c.streams[name]
	if !ok {
		return Stream{}, errors.NewNotFoundError("stream", name)
	}
	s.IdentityKey = slices.Clone(s.IdentityKey)
	return s, nil
}

// Names returns every stream name in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.streams))
	for name := range c.streams {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Select returns the streams under test: include (or every stream when
// include is empty) minus exclude, in lexical order.
func (c *Catalog) Select(include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = c.Names()
	}
	for _, name := range append(slices.Clone(include), exclude...) {
		if _, ok := c.streams[name]; !ok {
			return nil, errors.NewNotFoundError("stream", name)
		}
	}
	var selected []string
	for _, name := range include {
		if !slices.Contains(exclude, name) && !slices.Contains(selected, name) {
			selected = append(selected, name)
		}
	}
	slices.Sort(selected)
	return selected, nil
}

// Levels groups the named streams, plus every stream they transitively
// depend on, into dependency levels: every stream's parent is in an earlier
// level. Streams within a level are independent and sorted by name.
func (c *Catalog) Levels(names []string) ([][]Stream, error) {
	needed := make(map[string]bool)
	for _, name := range names {
		for cur := name; cur != ""; cur = c.streams[cur].DependsOn {
			if _, ok := c.streams[cur]; !ok {
				return nil, errors.NewNotFoundError("stream", cur)
			}
			if needed[cur] {
				break
			}
			needed[cur] = true
		}
	}

	indegree := make(map[string]int, len(needed))
	children := make(map[string][]string)
	for name := range needed {
		indegree[name] += 0
		if parent := c.streams[name].DependsOn; parent != "" {
			indegree[name]++
			children[parent] = append(children[parent], name)
		}
	}

	var current []string
	for name, deg := range indegree {
		if deg == 0 {
			current = append(current, name)
		}
	}

	var levels [][]Stream
	placed := 0
	for len(current) > 0 {
		slices.Sort(current)
		level := make([]Stream, len(current))
		var next []string
		for i, name := range current {
			level[i] = c.streams[name]
			for _, child := range children[name] {
				indegree[child]--
				if indegree[child] == 0 {
					next = append(next, child)
				}
			}
		}
		levels = append(levels, level)
		placed += len(current)
		current = next
	}

	if placed != len(needed) {
		var stuck []string
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		slices.Sort(stuck)
		return nil, &errors.CycleError{Streams: stuck}
	}
	return levels, nil
}

// Order returns the named streams and their dependencies with every
// producer before the streams that consume it.
func (c *Catalog) Order(names []string) ([]Stream, error) {
	levels, err := c.Levels(names)
	if err != nil {
		return nil, err
	}
	var ordered []Stream
	for _, level := range levels {
		ordered = append(ordered, level...)
	}
	return ordered, nil
}

// file is the YAML layout of a stream catalog.
type file struct {
	Streams []Stream `yaml:"streams"`
}

// Parse builds a catalog from YAML data.
func Parse(data []byte, name string) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	c, err := NewCatalog(f.Streams...)
	if err != nil {
		return nil, errors.NewConfigError("streams", name, err)
	}
	return c, nil
}

// Load builds a catalog from a YAML reader.
func Load(r io.Reader, name string) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	return Parse(data, name)
}

// LoadFile builds a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in HubSpot stream catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		data, err := embedded.FS.ReadFile(embedded.StreamsFile)
		if err != nil {
			panic("embedded stream catalog missing: " + err.Error())
		}
		c, err := Parse(data, embedded.StreamsFile)
		if err != nil {
			panic("embedded stream catalog invalid: " + err.Error())
		}
		defaultCatalog = c
	})
	return defaultCatalog
}
