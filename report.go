package parity

import (
	"fmt"
	"time"

	"github.com/agentstation/parity/pkg/reconciler"
)

// Report is the outcome of a Checker run.
type Report struct {
	RunID    string                `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Verdicts []*reconciler.Verdict `json:"verdicts" yaml:"verdicts"`
	Errors   []error               `json:"-" yaml:"-"`
	Duration time.Duration         `json:"duration" yaml:"duration"`
}

// Passed reports whether every stream passed and no precondition failed.
func (r *Report) Passed() bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, v := range r.Verdicts {
		if !v.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the names of the streams that did not pass.
func (r *Report) Failed() []string {
	var failed []string
	for _, v := range r.Verdicts {
		if !v.Passed() {
			failed = append(failed, v.Stream)
		}
	}
	return failed
}

// Verdict returns the verdict for a stream, or nil if it was not reconciled.
func (r *Report) Verdict(stream string) *reconciler.Verdict {
	for _, v := range r.Verdicts {
		if v.Stream == stream {
			return v
		}
	}
	return nil
}

// Summary returns a one-line description of the run.
func (r *Report) Summary() string {
	failed := len(r.Failed())
	if failed == 0 && len(r.Errors) == 0 {
		return fmt.Sprintf("all %d streams passed", len(r.Verdicts))
	}
	return fmt.Sprintf("%d of %d streams failed", failed, len(r.Verdicts))
}
