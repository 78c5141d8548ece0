// internal/async/token.go
package async

import "sync"

// Token is a cancellation token captured by a workflow when it starts and
// checked before every externally observable step. The first cancellation
// wins and records why the workflow ended.
type Token struct {
	mu        sync.RWMutex
	cancelled bool
	reason    Outcome
}

func NewToken() *Token {
	return &Token{reason: Done}
}

// Cancel marks the token with the given reason. Only the first call takes
// effect; it reports whether this call performed the cancellation.
func (t *Token) Cancel(reason Outcome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled {
		return false
	}
	t.cancelled = true
	t.reason = reason
	return true
}

// Cancelled reports whether the token has been cancelled.
func (t *Token) Cancelled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cancelled
}

// Reason returns why the token was cancelled, or Done if it was not.
func (t *Token) Reason() Outcome {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reason
}
