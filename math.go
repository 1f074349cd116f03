package xirr

import (
	"math"
)

const (
	// DefaultGuess is the starting rate for Newton-Raphson (10%).
	DefaultGuess = 0.10
	// Precision determines how close to the solution the algorithms should arrive before stopping.
	Precision = 1e-10
	// MaxIterations determines the maximum number of iterations performed by the Newton-Raphson algorithm.
	MaxIterations = 100
	// MaxBisectionIterations caps the bisection fallback.
	MaxBisectionIterations = 200

	// RateFloor is the lowest rate a solution may take; -100% makes the discount factor singular.
	RateFloor = -0.999999999

	minDerivative = 1e-16
	roundingScale = 1e12
)

// newton runs Newton-Raphson from guess. ok is false when the iteration leaves
// the rate domain, hits a flat derivative or runs out of iterations.
func newton(ev evaluator, guess, tolerance float64, maxIter int) (rate float64, iterations int, ok bool) {
	x := guess
	for i := 0; i < maxIter; i++ {
		fx := ev.npv(x)
		fpx := ev.dnpv(x)
		if !isFinite(fx) || !isFinite(fpx) || math.Abs(fpx) < minDerivative {
			return 0, i + 1, false
		}
		next := x - fx/fpx
		if !isFinite(next) || next <= RateFloor {
			return 0, i + 1, false
		}
		if math.Abs(next-x) < tolerance {
			return next, i + 1, true
		}
		x = next
	}
	return 0, maxIter, false
}

// bisect halves [low, high] while keeping the sign change. When the iteration
// cap is hit it returns the midpoint of the last interval.
func bisect(ev evaluator, low, high, tolerance float64, maxIter int) (rate float64, iterations int, ok bool) {
	fLow := ev.npv(low)
	fHigh := ev.npv(high)
	if !isFinite(fLow) || !isFinite(fHigh) {
		return 0, 0, false
	}
	if fLow == 0 {
		return low, 0, true
	}
	if fHigh == 0 {
		return high, 0, true
	}
	if fLow*fHigh > 0 {
		return 0, 0, false
	}

	for i := 0; i < maxIter; i++ {
		mid := (low + high) / 2
		fMid := ev.npv(mid)
		if !isFinite(fMid) {
			return 0, i + 1, false
		}
		if math.Abs(fMid) < tolerance || (high-low)/2 < tolerance {
			return mid, i + 1, true
		}
		if fLow*fMid <= 0 {
			high = mid
		} else {
			low = mid
			fLow = fMid
		}
	}
	return (low + high) / 2, maxIter, true
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// roundRate strips floating point noise below 1e-12.
func roundRate(r float64) float64 {
	return math.Round(r*roundingScale) / roundingScale
}
