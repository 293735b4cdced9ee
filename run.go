package parity

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/logging"
	"github.com/agentstation/parity/pkg/records"
	"github.com/agentstation/parity/pkg/streams"
)

// Run reconciles every stream under test against the pipeline output.
//
// Fetch failures abort the run. Identity key violations do not: the stream's
// verdict fails and the error is collected in Report.Errors.
func (c *Checker) Run(ctx context.Context, fetcher Fetcher, output *records.Output) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fetcher == nil {
		return nil, &errors.ValidationError{Field: "fetcher", Message: "cannot be nil"}
	}
	if output == nil {
		output = records.NewOutput()
	}
	logger := logging.FromContext(ctx)
	start := time.Now()

	// Step 1: Select the streams under test
	names, err := c.Streams()
	if err != nil {
		return nil, err
	}

	// Step 2: Order them and their parents by dependency
	levels, err := c.catalog.Levels(names)
	if err != nil {
		return nil, err
	}

	// Step 3: Fetch expected records level by level
	expected, err := c.fetch(ctx, fetcher, levels)
	if err != nil {
		return nil, err
	}

	// Step 4: Reconcile each stream under test in dependency order
	report := &Report{RunID: logging.RunID(ctx)}
	for _, level := range levels {
		for _, stream := range level {
			if !slices.Contains(names, stream.Name) {
				continue
			}
			actual := output.Upserts(stream.Name)
			logger.Debug().
				Str("stream", stream.Name).
				Int("expected", len(expected[stream.Name])).
				Int("actual", len(actual)).
				Msg("Reconciling stream")

			verdict, err := c.reconciler.Reconcile(ctx, stream, expected[stream.Name], actual)
			if err != nil {
				if !errors.IsPrecondition(err) || verdict == nil {
					return nil, err
				}
				report.Errors = append(report.Errors, err)
			}
			report.Verdicts = append(report.Verdicts, verdict)
			c.hooks.triggerVerdict(verdict)
		}
	}
	report.Duration = time.Since(start)

	// Step 5: Log the outcome
	event := logger.Info()
	if !report.Passed() {
		event = logger.Warn().Strs("failed", report.Failed())
	}
	event.
		Int("streams", len(report.Verdicts)).
		Dur("duration", report.Duration).
		Msg(report.Summary())

	return report, nil
}

// fetch retrieves expected records for every stream in levels. Streams in a
// level run concurrently; a derived stream sees its parent's records because
// the parent sits in an earlier level. Timestamps are normalized once, as
// each collection arrives.
func (c *Checker) fetch(ctx context.Context, fetcher Fetcher, levels [][]streams.Stream) (map[string]records.Collection, error) {
	logger := logging.FromContext(ctx)
	expected := make(map[string]records.Collection)
	var mu sync.Mutex

	for _, level := range levels {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)

		for _, stream := range level {
			var parentIDs []any
			if stream.Derived() {
				mu.Lock()
				parentIDs = expected[stream.DependsOn].Values(stream.ParentKey)
				mu.Unlock()
			}

			g.Go(func() error {
				collection, err := fetcher.Fetch(gctx, stream, parentIDs)
				if err != nil {
					return errors.WrapFetch(stream.Name, err)
				}
				if err := records.NormalizeTimestamps(collection); err != nil {
					return errors.WrapFetch(stream.Name, err)
				}

				logger.Info().
					Str("stream", stream.Name).
					Int("records", len(collection)).
					Msgf("found %d records", len(collection))

				mu.Lock()
				expected[stream.Name] = collection
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return expected, nil
}
