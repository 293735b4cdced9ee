package records

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/parity/pkg/constants"
	"github.com/agentstation/parity/pkg/errors"
)

// NormalizeTimestamps rewrites, in place, every non-null `timestamp` field of
// the collection from epoch milliseconds to the TimestampLayout string in UTC.
// Other fields are untouched. The rewrite is not idempotent: calling it on an
// already-normalized collection fails, so run it exactly once per collection.
func NormalizeTimestamps(c Collection) error {
	for i, r := range c {
		value, ok := r[constants.TimestampField]
		if !ok || value == nil {
			continue
		}
		formatted, err := FormatEpochMillis(value)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		r[constants.TimestampField] = formatted
	}
	return nil
}

// FormatEpochMillis renders an epoch-millisecond value as TimestampLayout in UTC.
// Sub-second precision is dropped.
func FormatEpochMillis(value any) (string, error) {
	ms, err := epochMillis(value)
	if err != nil {
		return "", err
	}
	return utc.New(time.UnixMilli(ms)).Format(constants.TimestampLayout), nil
}

func epochMillis(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			break
		}
		return int64(v), nil
	case float64:
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return int64(v), nil
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), nil
		}
	}
	return 0, &errors.ValidationError{
		Field:   constants.TimestampField,
		Value:   value,
		Message: fmt.Sprintf("expected epoch milliseconds, got %T", value),
	}
}
