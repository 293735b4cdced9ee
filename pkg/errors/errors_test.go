package errors_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/agentstation/parity/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "stream", ID: "deals"}
		assert.Equal(t, "stream deals not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("stream", "owners")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Field: "timestamp", Message: "not an epoch value"}
		assert.Equal(t, "validation failed for field timestamp: not an epoch value", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestIdentityKeyError(t *testing.T) {
	err := pkgerrors.NewIdentityKeyError("deals", "actual", 3, "dealId")
	assert.Equal(t, `stream deals: actual record 3 has no value for identity key field "dealId"`, err.Error())
	assert.True(t, pkgerrors.IsPrecondition(err))
	assert.False(t, pkgerrors.IsValidationError(err))
}

func TestPreconditionError(t *testing.T) {
	first := pkgerrors.NewIdentityKeyError("deals", "expected", 0, "dealId")
	second := pkgerrors.NewIdentityKeyError("deals", "actual", 2, "dealId")

	t.Run("single error reads like the error it wraps", func(t *testing.T) {
		err := &pkgerrors.PreconditionError{Stream: "deals", Errs: []error{first}}
		assert.Equal(t, first.Error(), err.Error())
	})

	t.Run("multiple errors are listed", func(t *testing.T) {
		err := &pkgerrors.PreconditionError{Stream: "deals", Errs: []error{first, second}}
		assert.Contains(t, err.Error(), "2 precondition failures")
		assert.Contains(t, err.Error(), "expected record 0")
		assert.Contains(t, err.Error(), "actual record 2")
	})

	t.Run("errors.As reaches wrapped key errors", func(t *testing.T) {
		var err error = &pkgerrors.PreconditionError{Stream: "deals", Errs: []error{first, second}}
		var keyErr *pkgerrors.IdentityKeyError
		require.True(t, errors.As(err, &keyErr))
		assert.Equal(t, "dealId", keyErr.Field)
		assert.True(t, pkgerrors.IsPrecondition(err))
	})
}

func TestDependencyAndCycleErrors(t *testing.T) {
	dep := &pkgerrors.DependencyError{Stream: "contacts_by_company", Dependency: "companies", Message: "not in catalog"}
	assert.Equal(t, "stream contacts_by_company depends on companies: not in catalog", dep.Error())
	assert.True(t, pkgerrors.IsNotFound(dep))

	cycle := &pkgerrors.CycleError{Streams: []string{"a", "b"}}
	assert.Equal(t, "dependency cycle between streams: a, b", cycle.Error())
	assert.True(t, pkgerrors.IsCycle(cycle))
}

func TestWrapHelpers(t *testing.T) {
	base := errors.New("boom")

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
		assert.NoError(t, pkgerrors.WrapParse("yaml", "x", nil))
		assert.NoError(t, pkgerrors.WrapFetch("deals", nil))
	})

	t.Run("io", func(t *testing.T) {
		err := pkgerrors.WrapIO("read", "/tmp/deals.json", base)
		assert.Equal(t, "IO error during read of /tmp/deals.json: boom", err.Error())
		assert.ErrorIs(t, err, base)
	})

	t.Run("parse", func(t *testing.T) {
		err := pkgerrors.WrapParse("yaml", "waivers.yaml", base)
		assert.Equal(t, "parse error in yaml file waivers.yaml: boom", err.Error())
		assert.ErrorIs(t, err, base)
	})

	t.Run("fetch", func(t *testing.T) {
		err := pkgerrors.WrapFetch("deals", base)
		assert.Equal(t, "fetch expected records for stream deals: boom", err.Error())
		var fetchErr *pkgerrors.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "deals", fetchErr.Stream)
	})
}
