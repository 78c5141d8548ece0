// internal/async/signal.go
//
// Single-shot completion signals. Every asynchronous operation in the
// showroom (walks, camera transitions, tours, narration) hands its caller a
// *Signal that resolves exactly once, whether the operation finishes
// naturally or is torn down. Cancellation goes through the same Resolve path
// as completion, so joins over signals can never hang.
package async

import "sync"

// Outcome describes how an operation ended.
type Outcome int

const (
	// Done means the operation ran to natural completion.
	Done Outcome = iota
	// Stopped means a user action ended the operation early.
	Stopped
	// Superseded means a newer operation replaced this one.
	Superseded
	// Skipped means the operation was bypassed before doing any work.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Stopped:
		return "stopped"
	case Superseded:
		return "superseded"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Signal is a one-shot completion handle. The zero value is not usable;
// create signals with NewSignal.
type Signal struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Resolve fires the signal with the given outcome. Only the first call has
// any effect; it reports whether this call was the one that fired.
func (s *Signal) Resolve(outcome Outcome) bool {
	fired := false
	s.once.Do(func() {
		s.outcome = outcome
		close(s.done)
		fired = true
	})
	return fired
}

// Done returns a channel closed once the signal resolves.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Resolved reports whether the signal has fired.
func (s *Signal) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal resolves and returns its outcome.
func (s *Signal) Wait() Outcome {
	<-s.done
	return s.outcome
}

// Resolved returns a signal that has already fired with the given outcome,
// for call sites that must hand back a signal but have nothing to do.
func Resolved(outcome Outcome) *Signal {
	s := NewSignal()
	s.Resolve(outcome)
	return s
}

// WaitAll blocks until every signal resolves and returns their outcomes in
// argument order.
func WaitAll(signals ...*Signal) []Outcome {
	outcomes := make([]Outcome, len(signals))
	for i, s := range signals {
		outcomes[i] = s.Wait()
	}
	return outcomes
}

// WaitAny blocks until the first signal resolves and returns its index and
// outcome. The remaining signals are left pending; per the showroom's
// cancellation contract they all resolve eventually, so the helper
// goroutines always exit.
func WaitAny(signals ...*Signal) (int, Outcome) {
	type result struct {
		index   int
		outcome Outcome
	}

	ch := make(chan result, len(signals))
	for i, s := range signals {
		go func(i int, s *Signal) {
			ch <- result{index: i, outcome: s.Wait()}
		}(i, s)
	}

	first := <-ch
	return first.index, first.outcome
}
