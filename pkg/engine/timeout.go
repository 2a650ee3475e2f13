package engine

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chazu/integral/pkg/grid"
)

// EvalTimeout is the hard limit for a single compilation.
const EvalTimeout = 5 * time.Second

// CallTimeout is the hard limit for a single height evaluation.
const CallTimeout = time.Second

// evalResult passes compilation results through channels.
type evalResult struct {
	height grid.HeightFunc
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if compilation exceeds EvalTimeout. Results whose generation is older than
// currentGen are discarded.
//
// On timeout the goroutine may still be running; the generation check
// discards its result when it eventually completes.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (grid.HeightFunc, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, fmt.Errorf("compilation superseded by newer request")
		}
		return res.height, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("compilation timed out after %s", EvalTimeout)
	}
}

// withCallTimeout returns a height function that gives up on eval after
// timeout and reports NaN, which the generator rejects. Runtime errors are
// reported as NaN too.
//
// The interpreter cannot be interrupted, so a timed out call keeps it busy
// for good: every later call reports NaN without evaluating.
func withCallTimeout(eval func(x, y float64) (float64, error), timeout time.Duration) grid.HeightFunc {
	var stuck atomic.Bool

	return func(x, y float64) float64 {
		if stuck.Load() {
			return math.NaN()
		}

		ch := make(chan float64, 1)
		go func() {
			h, err := eval(x, y)
			if err != nil {
				h = math.NaN()
			}
			ch <- h
		}()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case h := <-ch:
			return h

		case <-timer.C:
			if !stuck.Swap(true) {
				logs.Warn(errors.New("height evaluation timed out").
					WithTag("x", x).
					WithTag("y", y).
					WithTag("timeout", timeout.String()))
			}
			return math.NaN()
		}
	}
}
