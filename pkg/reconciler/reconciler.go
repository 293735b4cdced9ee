// Package reconciler decides whether a replicated stream reproduces the
// records of its source of truth.
//
// For one stream it matches expected and actual records by identity tuple,
// reports identities that were dropped or invented, and compares the field
// names of every matched pair after applying the stream's waivers.
package reconciler

import (
	"context"
	"errors"

	pkgerrors "github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/logging"
	"github.com/agentstation/parity/pkg/records"
	"github.com/agentstation/parity/pkg/streams"
	"github.com/agentstation/parity/pkg/waivers"
)

const (
	sourceExpected = "expected"
	sourceActual   = "actual"
)

// Reconciler compares one stream's expected and actual records.
type Reconciler interface {
	// Reconcile matches expected against actual and returns the verdict.
	// Collections are not modified. When a record has no usable identity key
	// the pass still completes for every other record; the verdict records
	// the key errors and a *errors.PreconditionError is returned with it.
	Reconcile(ctx context.Context, stream streams.Stream, expected, actual records.Collection) (*Verdict, error)
}

// reconciler is the default Reconciler.
type reconciler struct {
	waivers     waivers.Registry
	valueFields []string
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		waivers:     options.waivers,
		valueFields: options.valueFields,
	}, nil
}

// keyed is a record whose identity tuple could be computed.
type keyed struct {
	identity records.Tuple
	record   records.Record
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(ctx context.Context, stream streams.Stream, expected, actual records.Collection) (*Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(stream.IdentityKey) == 0 {
		return nil, &pkgerrors.ValidationError{
			Field:   "identity_key",
			Value:   stream.Name,
			Message: "stream has no identity key",
		}
	}

	logger := logging.FromContext(logging.WithStream(ctx, stream.Name))
	verdict := newVerdict(stream.Name)
	verdict.Stats.ExpectedRecords = len(expected)
	verdict.Stats.ActualRecords = len(actual)
	defer verdict.finalize()

	exp := r.identify(stream, sourceExpected, expected, verdict)
	act := r.identify(stream, sourceActual, actual, verdict)

	// Identity set comparison.
	expSet, actSet := make(records.TupleSet), make(records.TupleSet)
	for _, k := range exp {
		expSet.Add(k.identity)
	}
	for _, k := range act {
		actSet.Add(k.identity)
	}
	verdict.Dropped = expSet.Difference(actSet)
	verdict.Extra = actSet.Difference(expSet)

	// Per-record matching.
	index := make(map[string][]records.Record, len(act))
	for _, k := range act {
		key := k.identity.Key()
		index[key] = append(index[key], k.record)
	}

	missing := r.waivers.Missing(stream.Name)
	extra := r.waivers.Extra(stream.Name)
	prefixes := r.waivers.Prefixes(stream.Name)

	for _, k := range exp {
		matches := index[k.identity.Key()]
		switch len(matches) {
		case 0:
			verdict.IdentityFailures = append(verdict.IdentityFailures, IdentityFailure{
				Identity: k.identity,
				Kind:     MissingRecord,
			})
			continue
		case 1:
		default:
			verdict.IdentityFailures = append(verdict.IdentityFailures, IdentityFailure{
				Identity: k.identity,
				Kind:     DuplicateRecord,
				Matches:  len(matches),
			})
			continue
		}

		verdict.Stats.MatchedPairs++
		got := matches[0]

		mismatch, waived := compareFields(k.record, got, missing, extra, prefixes)
		verdict.Stats.WaivedFields += waived
		if mismatch != nil {
			mismatch.Identity = k.identity
			verdict.FieldMismatches = append(verdict.FieldMismatches, *mismatch)
		}
		verdict.ValueMismatches = append(verdict.ValueMismatches, r.compareValues(k.identity, k.record, got)...)
	}

	if verdict.Passed() {
		logger.Debug().
			Int("matched", verdict.Stats.MatchedPairs).
			Int("waived_fields", verdict.Stats.WaivedFields).
			Msg("Stream reconciled")
	} else {
		logger.Warn().
			Int("dropped", len(verdict.Dropped)).
			Int("extra", len(verdict.Extra)).
			Int("identity_failures", len(verdict.IdentityFailures)).
			Int("field_mismatches", len(verdict.FieldMismatches)).
			Int("value_mismatches", len(verdict.ValueMismatches)).
			Int("key_errors", len(verdict.KeyErrors)).
			Msg("Stream failed reconciliation")
	}

	if len(verdict.KeyErrors) > 0 {
		errs := make([]error, len(verdict.KeyErrors))
		for i, e := range verdict.KeyErrors {
			errs[i] = e
		}
		return verdict, &pkgerrors.PreconditionError{Stream: stream.Name, Errs: errs}
	}
	return verdict, nil
}

// identify computes identity tuples, recording a key error for every record
// whose key cannot be computed.
func (r *reconciler) identify(stream streams.Stream, source string, c records.Collection, verdict *Verdict) []keyed {
	out := make([]keyed, 0, len(c))
	for i, rec := range c {
		identity, err := rec.Identity(stream.IdentityKey)
		if err != nil {
			field := ""
			var verr *pkgerrors.ValidationError
			if errors.As(err, &verr) {
				field = verr.Field
			}
			verdict.KeyErrors = append(verdict.KeyErrors, pkgerrors.NewIdentityKeyError(stream.Name, source, i, field))
			continue
		}
		out = append(out, keyed{identity: identity, record: rec})
	}
	return out
}

// compareValues checks the configured value fields present on both sides.
func (r *reconciler) compareValues(identity records.Tuple, expected, actual records.Record) []ValueMismatch {
	var out []ValueMismatch
	for _, field := range r.valueFields {
		want, ok := expected[field]
		if !ok {
			continue
		}
		got, ok := actual[field]
		if !ok {
			continue
		}
		if !records.SameValue(want, got) {
			out = append(out, ValueMismatch{
				Identity: identity,
				Field:    field,
				Expected: want,
				Actual:   got,
			})
		}
	}
	return out
}
