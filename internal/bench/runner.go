package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"qdeck/internal/circuit"
	"qdeck/internal/register"
)

// Result summarises the timed repetitions of one scenario. Each sample
// covers register construction plus the whole program.
type Result struct {
	Scenario    string
	Qubits      int
	Gates       int
	Repetitions int
	Strategy    register.Strategy
	Mean        time.Duration
	Min         time.Duration
	Max         time.Duration
}

// Runner executes suites. The zero value is not usable; call NewRunner.
type Runner struct {
	strategy    register.Strategy
	parallel    int
	repetitions int
	log         zerolog.Logger
	regOpts     []register.Option
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithStrategy sets the register strategy used for every repetition.
func WithStrategy(s register.Strategy) RunnerOption {
	return func(r *Runner) {
		r.strategy = s
	}
}

// WithParallel bounds how many scenarios run at once. Values below 1 are
// treated as 1.
func WithParallel(n int) RunnerOption {
	return func(r *Runner) {
		r.parallel = max(n, 1)
	}
}

// WithRepetitions overrides every scenario's repetition count when n > 0.
func WithRepetitions(n int) RunnerOption {
	return func(r *Runner) {
		r.repetitions = n
	}
}

// WithLogger wires a logger for per-scenario progress.
func WithLogger(l zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// WithRegisterOptions passes extra options to every register the runner
// constructs.
func WithRegisterOptions(opts ...register.Option) RunnerOption {
	return func(r *Runner) {
		r.regOpts = append(r.regOpts, opts...)
	}
}

// NewRunner returns a runner using the indexed strategy, one scenario at a
// time.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		strategy: register.Indexed,
		parallel: 1,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run times every scenario in the suite. Results are returned in suite order.
// The first failing scenario cancels the rest.
func (r *Runner) Run(ctx context.Context, suite Suite) ([]Result, error) {
	circuits := make([]*circuit.Circuit, len(suite.Scenarios))
	for i, sc := range suite.Scenarios {
		c, err := sc.Circuit()
		if err != nil {
			return nil, err
		}
		circuits[i] = c
	}

	results := make([]Result, len(suite.Scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, sc := range suite.Scenarios {
		g.Go(func() error {
			res, err := r.runScenario(ctx, sc, circuits[i])
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runScenario(ctx context.Context, sc Scenario, c *circuit.Circuit) (Result, error) {
	reps := sc.reps()
	if r.repetitions > 0 {
		reps = r.repetitions
	}
	opts := append([]register.Option{register.WithStrategy(r.strategy)}, r.regOpts...)

	res := Result{
		Scenario:    sc.Name,
		Qubits:      c.NumQubits,
		Gates:       len(c.Gates),
		Repetitions: reps,
		Strategy:    r.strategy,
	}
	var total time.Duration
	for i := range reps {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		start := time.Now()
		reg, err := register.New(c.NumQubits, opts...)
		if err != nil {
			return Result{}, err
		}
		if err := c.Run(reg, -1); err != nil {
			return Result{}, err
		}
		elapsed := time.Since(start)

		total += elapsed
		if i == 0 || elapsed < res.Min {
			res.Min = elapsed
		}
		res.Max = max(res.Max, elapsed)
	}
	res.Mean = total / time.Duration(reps)

	r.log.Info().
		Str("scenario", sc.Name).
		Int("qubits", res.Qubits).
		Int("reps", reps).
		Stringer("strategy", r.strategy).
		Dur("mean", res.Mean).
		Msg("scenario finished")
	return res, nil
}
