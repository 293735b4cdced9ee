package records

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Tuple is the ordered list of identity-key values of one record.
type Tuple []any

// tupleSep cannot appear in a canonical value encoding.
const tupleSep = "\x1f"

// Key returns a canonical string for the tuple, suitable as a map key.
// Two tuples have equal keys exactly when their values are equal position by
// position. Numbers compare by value, so an int 7 and a JSON-decoded 7.0
// are equal, while the string "7" is not.
func (t Tuple) Key() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = canonical(v)
	}
	return strings.Join(parts, tupleSep)
}

// Equal reports whether two tuples identify the same record.
func (t Tuple) Equal(other Tuple) bool {
	return len(t) == len(other) && t.Key() == other.Key()
}

// String renders the tuple for reports, e.g. (7) or (12, "abc").
func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		if s, ok := v.(string); ok {
			parts[i] = strconv.Quote(s)
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// canonical encodes a loosely-typed value so that equal values encode equally.
func canonical(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "s:" + strconv.Quote(x)
	case bool:
		return "b:" + strconv.FormatBool(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return "n:" + strconv.FormatInt(i, 10)
		}
		if f, err := x.Float64(); err == nil {
			return number(f)
		}
		return "n:" + x.String()
	case int:
		return "n:" + strconv.FormatInt(int64(x), 10)
	case int8:
		return "n:" + strconv.FormatInt(int64(x), 10)
	case int16:
		return "n:" + strconv.FormatInt(int64(x), 10)
	case int32:
		return "n:" + strconv.FormatInt(int64(x), 10)
	case int64:
		return "n:" + strconv.FormatInt(x, 10)
	case uint:
		return "n:" + strconv.FormatUint(uint64(x), 10)
	case uint8:
		return "n:" + strconv.FormatUint(uint64(x), 10)
	case uint16:
		return "n:" + strconv.FormatUint(uint64(x), 10)
	case uint32:
		return "n:" + strconv.FormatUint(uint64(x), 10)
	case uint64:
		return "n:" + strconv.FormatUint(x, 10)
	case float32:
		return number(float64(x))
	case float64:
		return number(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("v:%#v", x)
		}
		return "j:" + string(data)
	}
}

// number encodes integral floats the same way as integers.
func number(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return "n:" + strconv.FormatInt(int64(f), 10)
	}
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// TupleSet is a set of identity tuples keyed by their canonical encoding.
type TupleSet map[string]Tuple

// Add inserts the tuple.
func (s TupleSet) Add(t Tuple) {
	s[t.Key()] = t
}

// Has reports whether an equal tuple is in the set.
func (s TupleSet) Has(t Tuple) bool {
	_, ok := s[t.Key()]
	return ok
}

// Difference returns the tuples in s that are not in other, ordered by key.
func (s TupleSet) Difference(other TupleSet) []Tuple {
	keys := make([]string, 0, len(s))
	for k := range s {
		if _, ok := other[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]Tuple, len(keys))
	for i, k := range keys {
		out[i] = s[k]
	}
	return out
}

// SameValue reports whether two loosely-typed values are equal under the
// same rules tuples are compared with.
func SameValue(a, b any) bool {
	return canonical(a) == canonical(b)
}
