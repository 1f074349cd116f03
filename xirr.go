// Package xirr computes the extended internal rate of return of irregularly
// dated cash flows.
package xirr

import (
	"fmt"
	"math"
	"time"
)

// Method names the algorithm that produced a rate.
type Method string

const (
	MethodNewton    Method = "newton"
	MethodBisection Method = "bisection"
)

// Options are the solver constants. Start from DefaultOptions and override fields.
type Options struct {
	// Guess is the Newton-Raphson starting rate; it also sizes the first bracket.
	Guess float64
	// Tolerance is the convergence threshold for both algorithms.
	Tolerance float64
	// NewtonIterations caps Newton-Raphson. Zero goes straight to bisection.
	NewtonIterations int
	// BisectionIterations caps the fallback.
	BisectionIterations int
}

func DefaultOptions() Options {
	return Options{
		Guess:               DefaultGuess,
		Tolerance:           Precision,
		NewtonIterations:    MaxIterations,
		BisectionIterations: MaxBisectionIterations,
	}
}

func (o Options) Validate() error {
	if !isFinite(o.Guess) {
		return invalidOptions("guess must be finite, got %v", o.Guess)
	}
	if !isFinite(o.Tolerance) || o.Tolerance <= 0 {
		return invalidOptions("tolerance must be positive, got %v", o.Tolerance)
	}
	if o.NewtonIterations < 0 {
		return invalidOptions("newton iterations must not be negative, got %d", o.NewtonIterations)
	}
	if o.BisectionIterations < 0 {
		return invalidOptions("bisection iterations must not be negative, got %d", o.BisectionIterations)
	}
	return nil
}

// Result is a solved rate and how it was reached.
type Result struct {
	// Rate is annualized, 0.12 meaning 12% per year.
	Rate       float64 `json:"rate"`
	Method     Method  `json:"method"`
	Iterations int     `json:"iterations"`
}

// Solve finds r such that s.NPV(r) == 0. Newton-Raphson is tried first; if it
// fails, a sign-changing bracket is searched for and bisected.
//
// Every failure satisfies errors.Is(err, ErrNoSolution) except invalid options.
func Solve(s Series, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if s.Len() < 2 {
		return Result{}, ErrTooFewFlows
	}

	rate, newtonIters, ok := newton(s.ev, opts.Guess, opts.Tolerance, opts.NewtonIterations)
	if ok {
		return Result{
			Rate:       roundRate(math.Max(rate, RateFloor)),
			Method:     MethodNewton,
			Iterations: newtonIters,
		}, nil
	}

	low, high, ok := findBracket(s.ev, opts.Guess)
	if !ok {
		return Result{}, ErrNoBracket
	}
	rate, bisectIters, ok := bisect(s.ev, low, high, opts.Tolerance, opts.BisectionIterations)
	if !ok || !isFinite(rate) {
		return Result{}, fmt.Errorf("bisection on [%g, %g]: %w", low, high, ErrNotConverged)
	}
	return Result{
		Rate:       roundRate(rate),
		Method:     MethodBisection,
		Iterations: newtonIters + bisectIters,
	}, nil
}

// ScheduledInternalRateOfReturn returns the internal rate of return of a scheduled cash flow series.
// Guess is a guess for the rate, used as a starting point for the iterative algorithm.
// Input order does not matter; flows are sorted by date.
//
// Excel equivalent: XIRR
func ScheduledInternalRateOfReturn(values []float64, dates []time.Time, guess float64) (float64, error) {
	s, err := Normalize(values, dates)
	if err != nil {
		return 0, err
	}
	opts := DefaultOptions()
	opts.Guess = guess
	res, err := Solve(s, opts)
	if err != nil {
		return 0, err
	}
	return res.Rate, nil
}

// XIRR is ScheduledInternalRateOfReturn with failures flattened to NaN.
func XIRR(values []float64, dates []time.Time, guess float64) float64 {
	r, err := ScheduledInternalRateOfReturn(values, dates, guess)
	if err != nil {
		return math.NaN()
	}
	return r
}
