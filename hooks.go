package parity

import (
	"sync"

	"github.com/agentstation/parity/pkg/reconciler"
)

// VerdictHook is called with each stream's verdict as soon as it is known.
type VerdictHook func(verdict *reconciler.Verdict)

// hooks manages verdict callbacks.
type hooks struct {
	mu        sync.RWMutex
	onVerdict []VerdictHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnVerdict registers a callback.
func (h *hooks) OnVerdict(fn VerdictHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onVerdict = append(h.onVerdict, fn)
}

func (h *hooks) triggerVerdict(verdict *reconciler.Verdict) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onVerdict {
		fn(verdict)
	}
}
