package reconciler

import (
	"github.com/agentstation/parity/pkg/constants"
	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/waivers"
)

// options configures a reconciler.
type options struct {
	waivers     waivers.Registry
	valueFields []string
}

func defaultOptions() *options {
	return &options{
		waivers:     waivers.Default(),
		valueFields: []string{constants.TimestampField},
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithWaivers sets the waiver registry consulted for every stream.
func WithWaivers(registry waivers.Registry) Option {
	return func(o *options) error {
		if registry == nil {
			return &errors.ValidationError{
				Field:   "waivers",
				Message: "cannot be nil",
			}
		}
		o.waivers = registry
		return nil
	}
}

// WithValueFields sets the fields whose values are compared between matched
// records. Calling it with no fields disables the value pass.
func WithValueFields(fields ...string) Option {
	return func(o *options) error {
		for _, f := range fields {
			if f == "" {
				return &errors.ValidationError{
					Field:   "value_fields",
					Message: "field name cannot be empty",
				}
			}
		}
		o.valueFields = append([]string(nil), fields...)
		return nil
	}
}
