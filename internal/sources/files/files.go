// Package files reads expected records and captured pipeline output from
// local files.
//
// Expected records for a stream live in <dir>/<stream>.<ext> where ext is
// json, jsonl, yaml or yml. A derived stream may instead be laid out per
// parent, as <dir>/<stream>/<parent id>.<ext>, mirroring an API that is
// queried once per parent record; only the files of the requested parents
// are read. A derived stream kept in one file is narrowed to the requested
// parents through its ParentField.
package files

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/samber/lo"

	"github.com/agentstation/parity/pkg/constants"
	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/logging"
	"github.com/agentstation/parity/pkg/records"
	"github.com/agentstation/parity/pkg/streams"
)

// Extensions lists the recognized record file extensions in lookup order.
var Extensions = []string{".json", ".jsonl", ".yaml", ".yml"}

// Fetcher serves expected records from a directory.
type Fetcher struct {
	dir          string
	allowMissing bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithAllowMissing treats a stream without a file as having no records
// instead of failing.
func WithAllowMissing(allow bool) Option {
	return func(f *Fetcher) {
		f.allowMissing = allow
	}
}

// New creates a Fetcher reading from dir.
func New(dir string, opts ...Option) *Fetcher {
	f := &Fetcher{dir: dir}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dir returns the directory the fetcher reads from.
func (f *Fetcher) Dir() string {
	return f.dir
}

// Fetch returns the expected records of the stream.
func (f *Fetcher) Fetch(ctx context.Context, stream streams.Stream, parentIDs []any) (records.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx)

	if stream.Derived() {
		perParent := filepath.Join(f.dir, stream.Name)
		if info, err := os.Stat(perParent); err == nil && info.IsDir() {
			logger.Debug().
				Str("stream", stream.Name).
				Int("parents", len(parentIDs)).
				Msg("Reading records per parent")
			return f.fetchPerParent(ctx, perParent, parentIDs)
		}
	}

	path, ok := find(f.dir, stream.Name)
	if !ok {
		if f.allowMissing {
			logger.Debug().Str("stream", stream.Name).Msg("No record file, treating stream as empty")
			return records.Collection{}, nil
		}
		return nil, errors.NewNotFoundError("record file for stream", stream.Name)
	}
	logger.Debug().Str("stream", stream.Name).Str("path", path).Msg("Reading records")
	c, err := ReadFile(path)
	if err != nil || !stream.Derived() {
		return c, err
	}
	return lo.Filter(c, func(r records.Record, _ int) bool {
		return stream.OfParent(r, parentIDs)
	}), nil
}

func (f *Fetcher) fetchPerParent(ctx context.Context, dir string, parentIDs []any) (records.Collection, error) {
	out := records.Collection{}
	for _, id := range parentIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, ok := find(dir, fmt.Sprint(id))
		if !ok {
			// The API returns nothing for a parent without children.
			continue
		}
		c, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, c...)
	}
	return out, nil
}

// find returns the first existing <dir>/<name><ext>.
func find(dir, name string) (string, bool) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// ReadFile decodes a record file according to its extension.
func ReadFile(path string) (records.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	switch filepath.Ext(path) {
	case ".json":
		return decodeJSON(data, path)
	case ".jsonl":
		return decodeJSONLines(data, path)
	case ".yaml", ".yml":
		return decodeYAML(data, path)
	default:
		return nil, &errors.ValidationError{Field: "path", Value: path, Message: "unsupported record file extension"}
	}
}

// decodeJSON accepts an array of records or an object with a "records" array.
func decodeJSON(data []byte, path string) (records.Collection, error) {
	data = bytes.TrimSpace(data)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Records records.Collection `json:"records"`
		}
		if err := dec.Decode(&wrapped); err != nil {
			return nil, errors.WrapParse("json", path, err)
		}
		return nonNil(wrapped.Records), nil
	}

	var c records.Collection
	if err := dec.Decode(&c); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return nonNil(c), nil
}

func decodeJSONLines(data []byte, path string) (records.Collection, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), constants.MaxScanTokenSize)

	c := records.Collection{}
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var r records.Record
		if err := dec.Decode(&r); err != nil {
			return nil, &errors.ParseError{Format: "jsonl", File: path, Line: line, Message: err.Error(), Err: err}
		}
		c = append(c, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return c, nil
}

func decodeYAML(data []byte, path string) (records.Collection, error) {
	var c records.Collection
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return nonNil(c), nil
}

func nonNil(c records.Collection) records.Collection {
	if c == nil {
		return records.Collection{}
	}
	return c
}

// ReadOutput loads captured pipeline output from a newline-delimited JSON
// file. A path of "-" reads standard input.
func ReadOutput(path string) (*records.Output, error) {
	if path == "-" {
		return records.ReadOutput(os.Stdin, "stdin")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()
	return records.ReadOutput(f, path)
}
