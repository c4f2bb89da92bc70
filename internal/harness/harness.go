// Package harness executes scenario files end to end through the
// lexer, parser, verifier and interpreter, and snapshots the resulting
// trace for golden-file comparison.
//
// Determinism is the whole point: scenarios pin the event ID sequence
// and the clock, and snapshots exclude anything wall-clock dependent,
// so a golden file only changes when observable behavior changes.
package harness

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/sigil/internal/interp"
	"github.com/roach88/sigil/internal/lexer"
	"github.com/roach88/sigil/internal/parser"
	"github.com/roach88/sigil/internal/verify"
)

// Result bundles everything a scenario execution produced.
type Result struct {
	Report  *verify.Report
	Run     *interp.Result
	RunErr  error
	Elapsed time.Duration
}

// Run executes one scenario. Execution errors are returned directly
// unless the scenario declares WantError, in which case they are
// recorded on the Result for the snapshot.
func Run(sc *Scenario) (*Result, error) {
	tokens, err := lexer.New(sc.Source).Tokenize()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	prog, err := parser.New(tokens).Parse()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	res := &Result{}
	if sc.Verify {
		res.Report = verify.Verify(prog)
	}

	limits := interp.DefaultLimits()
	if sc.Limits != nil {
		limits = *sc.Limits
	}

	opts := []interp.Option{
		interp.WithNow(scenarioClock(sc.Clock)),
	}
	if len(sc.EventIDs) > 0 {
		opts = append(opts, interp.WithEventIDs(interp.NewFixedGenerator(sc.EventIDs...)))
	} else {
		opts = append(opts, interp.WithEventIDs(interp.NewFixedGenerator()))
	}

	in := interp.New(limits, opts...)
	run, runErr := in.Execute(prog)
	res.Run = run
	res.Elapsed = run.Elapsed

	if runErr != nil {
		var rtErr *interp.RuntimeError
		if sc.WantError && errors.As(runErr, &rtErr) {
			res.RunErr = runErr
			return res, nil
		}
		return res, fmt.Errorf("scenario %s: %w", sc.Name, runErr)
	}
	if sc.WantError {
		return res, fmt.Errorf("scenario %s: expected an execution error", sc.Name)
	}
	return res, nil
}

// scenarioClock builds a stepping clock from the spec. Every read
// advances the clock by the configured step, so repeated timestamp
// reads within one run stay distinct but reproducible.
func scenarioClock(spec *ClockSpec) func() time.Time {
	start := time.Unix(0, 0).UTC()
	step := time.Duration(0)
	if spec != nil {
		if !spec.Start.IsZero() {
			start = spec.Start.UTC()
		}
		step = time.Duration(spec.StepMillis) * time.Millisecond
	}

	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(step)
		return now
	}
}
