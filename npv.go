package xirr

import (
	"math"
	"time"
)

// evaluator holds amounts and their year fractions from the first flow. The
// Newton, bracket and bisection paths all go through the same instance.
type evaluator struct {
	amounts []float64
	years   []float64
}

func newEvaluator(sorted []CashFlow) evaluator {
	ev := evaluator{
		amounts: make([]float64, len(sorted)),
		years:   make([]float64, len(sorted)),
	}
	start := sorted[0].Date.Time()
	for i, cf := range sorted {
		ev.amounts[i] = cf.Amount
		ev.years[i] = actual365(start, cf.Date.Time())
	}
	return ev
}

func validRate(rate float64) bool {
	return !math.IsNaN(rate) && !math.IsInf(rate, 0) && rate > -1
}

// npv is f(r) = Σ a_i / (1+r)^t_i. NaN outside the rate domain.
func (ev evaluator) npv(rate float64) float64 {
	if !validRate(rate) {
		return math.NaN()
	}
	xnpv := 0.0
	for i, a := range ev.amounts {
		xnpv += a / math.Pow(1+rate, ev.years[i])
	}
	return xnpv
}

// dnpv is f'(r) = Σ -(a_i t_i) / (1+r)^(t_i+1). NaN outside the rate domain.
func (ev evaluator) dnpv(rate float64) float64 {
	if !validRate(rate) {
		return math.NaN()
	}
	dxnpv := 0.0
	for i, a := range ev.amounts {
		t := ev.years[i]
		if t == 0 {
			continue
		}
		dxnpv -= a * t / math.Pow(1+rate, t+1)
	}
	return dxnpv
}

// NPV returns the net present value of the series at rate, discounted to the
// first flow's date with Actual/365. It is NaN when rate is not finite or <= -1.
func (s Series) NPV(rate float64) float64 {
	if len(s.flows) == 0 {
		return math.NaN()
	}
	return s.ev.npv(rate)
}

// DNPV returns the derivative of NPV with respect to rate.
func (s Series) DNPV(rate float64) float64 {
	if len(s.flows) == 0 {
		return math.NaN()
	}
	return s.ev.dnpv(rate)
}

// ScheduledNetPresentValue returns the Net Present Value of a scheduled cash flow series given a discount rate.
// Flows are discounted to the date of the first element, in the order given; a settlement date
// can be used by prepending it with a 0 amount.
//
// Excel equivalent: XNPV
func ScheduledNetPresentValue(rate float64, values []float64, dates []time.Time) (float64, error) {
	if len(values) != len(dates) {
		return 0, ErrLengthMismatch
	}
	if len(values) == 0 {
		return 0, nil
	}
	if !validRate(rate) {
		return 0, ErrInvalidRate
	}

	for _, d := range dates {
		if d.IsZero() {
			return 0, ErrMissingDate
		}
	}

	xnpv := 0.0
	for i := range values {
		exp := actual365(dates[0], dates[i])
		xnpv += values[i] / math.Pow(1+rate, exp)
	}
	return xnpv, nil
}
