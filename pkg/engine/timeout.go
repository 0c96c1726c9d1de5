package engine

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout is the hard limit for a single evaluation.
const DefaultTimeout = 5 * time.Second

var (
	ErrTimeout    = errors.New("evaluation timed out")
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	session *Session
	errors  []EvalError
	err     error
}

// wait returns the result from ch unless the engine's timeout elapses
// first. A result that arrives after a newer Evaluate call started is
// discarded. On timeout the evaluating goroutine keeps running; its
// buffered send lets it exit once the interpreter returns.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*Session, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.session, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
