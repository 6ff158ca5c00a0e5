package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golobby/ormperf/store"
	"go.uber.org/zap"
)

type Result struct {
	Scenario   string
	Binding    string
	Elapsed    time.Duration
	Iterations int
	Completed  int
	Err        error
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// OpsPerSec is completed iterations per second of elapsed time.
func (r Result) OpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Completed) / r.Elapsed.Seconds()
}

type Runner struct {
	stores  []store.RecordStore
	n       int
	timeout time.Duration
	out     io.Writer
	logger  *zap.Logger
}

// NewRunner times scenarios on each store in the given order. A timeout
// of zero leaves scenarios unbounded.
func NewRunner(stores []store.RecordStore, n int, timeout time.Duration, out io.Writer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{stores: stores, n: n, timeout: timeout, out: out, logger: logger}
}

// Run executes every scenario on every store, printing a progress block per
// scenario. A failing side is recorded and the run goes on.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios)*len(r.stores))
	for k, sc := range scenarios {
		fmt.Fprintf(r.out, "Begin Benchmark %d:\n", k+1)
		for _, s := range r.stores {
			res := r.runSide(ctx, sc, s)
			r.report(res)
			results = append(results, res)
		}
		fmt.Fprintf(r.out, "End Benchmark %d\n", k+1)
	}
	return results
}

func (r *Runner) runSide(ctx context.Context, sc Scenario, s store.RecordStore) Result {
	res := Result{Scenario: sc.Name, Binding: s.Name(), Iterations: sc.iterations(r.n)}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	done := ctx.Done()

	start := time.Now()
loop:
	for i := 0; i < res.Iterations; i++ {
		select {
		case <-done:
			res.Err = ctx.Err()
			break loop
		default:
		}
		err := sc.Step(ctx, s)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			res.Err = err
			break
		}
		res.Completed++
	}
	res.Elapsed = time.Since(start)

	if res.Err != nil {
		r.logger.Warn("scenario side failed",
			zap.String("scenario", res.Scenario),
			zap.String("binding", res.Binding),
			zap.Int("completed", res.Completed),
			zap.Int("iterations", res.Iterations),
			zap.Error(res.Err))
	}
	return res
}

func (r *Runner) report(res Result) {
	label := fmt.Sprintf("%s %s:", res.Binding, res.Scenario)
	if res.Failed() {
		fmt.Fprintf(r.out, "  %-40s FAILED after %d/%d: %v\n", label, res.Completed, res.Iterations, res.Err)
		return
	}
	fmt.Fprintf(r.out, "  %-40s %12.6fs %8d/%d %12.1f ops/s\n",
		label, res.Elapsed.Seconds(), res.Completed, res.Iterations, res.OpsPerSec())
}
