package parity

import (
	"github.com/agentstation/parity/pkg/constants"
	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/reconciler"
	"github.com/agentstation/parity/pkg/streams"
	"github.com/agentstation/parity/pkg/waivers"
)

// Option is a function that configures a Checker.
type Option func(*options) error

type options struct {
	catalog     *streams.Catalog
	waivers     waivers.Registry
	valueFields []string
	reconciler  reconciler.Reconciler
	include     []string
	exclude     []string
	concurrency int
}

func defaultOptions() *options {
	return &options{
		catalog:     streams.Default(),
		waivers:     waivers.Default(),
		concurrency: constants.DefaultFetchConcurrency,
	}
}

func newOptions(opts ...Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *options) reconcilerOptions() []reconciler.Option {
	opts := []reconciler.Option{reconciler.WithWaivers(o.waivers)}
	if o.valueFields != nil {
		opts = append(opts, reconciler.WithValueFields(o.valueFields...))
	}
	return opts
}

// WithCatalog configures the streams the checker knows about.
func WithCatalog(catalog *streams.Catalog) Option {
	return func(o *options) error {
		if catalog == nil {
			return &errors.ValidationError{Field: "catalog", Message: "cannot be nil"}
		}
		o.catalog = catalog
		return nil
	}
}

// WithWaivers configures the waiver registry used when reconciling.
func WithWaivers(registry waivers.Registry) Option {
	return func(o *options) error {
		if registry == nil {
			return &errors.ValidationError{Field: "waivers", Message: "cannot be nil"}
		}
		o.waivers = registry
		return nil
	}
}

// WithValueFields configures the fields whose values are compared between
// matched records.
func WithValueFields(fields ...string) Option {
	return func(o *options) error {
		o.valueFields = append([]string{}, fields...)
		return nil
	}
}

// WithReconciler replaces the reconciler entirely. Waiver and value field
// options are ignored when it is set.
func WithReconciler(r reconciler.Reconciler) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "reconciler", Message: "cannot be nil"}
		}
		o.reconciler = r
		return nil
	}
}

// WithStreams limits the streams under test. Without it every catalog
// stream is tested.
func WithStreams(names ...string) Option {
	return func(o *options) error {
		o.include = append(o.include, names...)
		return nil
	}
}

// WithExcluded removes streams from test. Excluded streams are still
// fetched when a stream under test depends on them.
func WithExcluded(names ...string) Option {
	return func(o *options) error {
		o.exclude = append(o.exclude, names...)
		return nil
	}
}

// WithFetchConcurrency bounds how many independent streams are fetched at once.
func WithFetchConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{Field: "fetch_concurrency", Value: n, Message: "must be at least 1"}
		}
		o.concurrency = n
		return nil
	}
}
