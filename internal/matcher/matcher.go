// Package matcher expands stream name patterns. A pattern is a plain name,
// a shell glob (*, ?, []) or, when it contains regex metacharacters, an
// anchored regular expression.
package matcher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/agentstation/parity/pkg/errors"
)

// PatternType represents the kind of pattern.
type PatternType int

const (
	// Literal matches one exact name.
	Literal PatternType = iota
	// Glob uses shell-style glob patterns.
	Glob
	// Regex uses an anchored regular expression.
	Regex
)

// String returns the pattern type's name.
func (pt PatternType) String() string {
	switch pt {
	case Literal:
		return "literal"
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	default:
		return "unknown"
	}
}

// Matcher matches names against one pattern.
type Matcher struct {
	pattern     string
	patternType PatternType
	compiled    *regexp.Regexp
}

// New compiles pattern, detecting its type.
func New(pattern string) (*Matcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, &errors.ValidationError{Field: "pattern", Message: "cannot be empty"}
	}
	m := &Matcher{pattern: pattern, patternType: Detect(pattern)}
	switch m.patternType {
	case Glob:
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, &errors.ValidationError{Field: "pattern", Value: pattern, Message: fmt.Sprintf("invalid glob: %v", err)}
		}
	case Regex:
		body := strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$")
		compiled, err := regexp.Compile("^(?:" + body + ")$")
		if err != nil {
			return nil, &errors.ValidationError{Field: "pattern", Value: pattern, Message: fmt.Sprintf("invalid regex: %v", err)}
		}
		m.compiled = compiled
	}
	return m, nil
}

// Match reports whether name matches the pattern.
func (m *Matcher) Match(name string) bool {
	switch m.patternType {
	case Glob:
		ok, _ := filepath.Match(m.pattern, name)
		return ok
	case Regex:
		return m.compiled.MatchString(name)
	default:
		return m.pattern == name
	}
}

// Pattern returns the original pattern string.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Type returns the detected pattern type.
func (m *Matcher) Type() PatternType {
	return m.patternType
}

var regexIndicators = []string{
	"^", "$", `\d`, `\w`, `\s`, "(?", "{", "}", "+", "|", "(", ")", ".*",
}

// Detect classifies a pattern.
func Detect(pattern string) PatternType {
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	if strings.ContainsAny(pattern, "*?[]") {
		return Glob
	}
	return Literal
}

// Expand returns the names matched by any of the patterns, in the order of
// names and without duplicates. A literal pattern that names nothing is
// kept so the caller can report the unknown name; a glob or regex that
// matches nothing is an error.
func Expand(patterns, names []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		m, err := New(p)
		if err != nil {
			return nil, err
		}
		matched := 0
		for _, name := range names {
			if m.Match(name) {
				matched++
				if !slices.Contains(out, name) {
					out = append(out, name)
				}
			}
		}
		if matched > 0 {
			continue
		}
		if m.Type() != Literal {
			return nil, errors.NewNotFoundError("stream matching", p)
		}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out, nil
}
