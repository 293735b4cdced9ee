// Package parity checks that a replication pipeline reproduced its source of
// truth.
//
// A Checker fetches the expected records of every stream under test from a
// Fetcher, in dependency order, and reconciles them against the upsert
// records captured from the pipeline's output. The result is a Report with
// one verdict per stream.
package parity

import (
	"context"
	"fmt"

	"github.com/agentstation/parity/pkg/reconciler"
	"github.com/agentstation/parity/pkg/records"
	"github.com/agentstation/parity/pkg/streams"
)

// Fetcher supplies the expected records of a stream from the source of truth.
//
// For a derived stream parentIDs holds the ParentKey values of the parent
// stream's expected records; for other streams it is nil. Fetch may be
// called concurrently for streams that do not depend on each other.
type Fetcher interface {
	Fetch(ctx context.Context, stream streams.Stream, parentIDs []any) (records.Collection, error)
}

// FetcherFunc adapts an ordinary function to a Fetcher.
type FetcherFunc func(ctx context.Context, stream streams.Stream, parentIDs []any) (records.Collection, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, stream streams.Stream, parentIDs []any) (records.Collection, error) {
	return f(ctx, stream, parentIDs)
}

// Checker runs reconciliations for a catalog of streams.
type Checker struct {
	catalog     *streams.Catalog
	reconciler  reconciler.Reconciler
	include     []string
	exclude     []string
	concurrency int

	hooks *hooks
}

// New creates a Checker with the given options.
func New(opts ...Option) (*Checker, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	rec := o.reconciler
	if rec == nil {
		rec, err = reconciler.New(o.reconcilerOptions()...)
		if err != nil {
			return nil, fmt.Errorf("creating reconciler: %w", err)
		}
	}

	return &Checker{
		catalog:     o.catalog,
		reconciler:  rec,
		include:     o.include,
		exclude:     o.exclude,
		concurrency: o.concurrency,
		hooks:       newHooks(),
	}, nil
}

// Catalog returns the catalog the checker reconciles.
func (c *Checker) Catalog() *streams.Catalog {
	return c.catalog
}

// Streams returns the names of the streams under test.
func (c *Checker) Streams() ([]string, error) {
	return c.catalog.Select(c.include, c.exclude)
}

// OnVerdict registers a callback invoked after each stream is reconciled.
func (c *Checker) OnVerdict(fn VerdictHook) {
	c.hooks.OnVerdict(fn)
}
