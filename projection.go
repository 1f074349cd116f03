package xirr

import (
	"math"
	"time"
)

// WealthPoint compares money put in with what it would be worth at the rate.
type WealthPoint struct {
	Date     Fecha   `json:"date"`
	Invested float64 `json:"invested"`
	Value    float64 `json:"value"`
}

// PerformancePoint is the net cash moved on a date and the compounded value of
// every flow up to it.
type PerformancePoint struct {
	Date    Fecha   `json:"date"`
	NetCash float64 `json:"net_cash"`
	Value   float64 `json:"value"`
}

// WealthProjection grows each contribution at rate and reports, for every
// distinct flow date, the cumulative amount invested and its compounded value.
// If end is given and is not a flow date it is added as a final point.
// Redemptions are ignored.
func WealthProjection(s Series, rate float64, end *time.Time) ([]WealthPoint, error) {
	if !validRate(rate) {
		return nil, ErrInvalidRate
	}

	var investments []CashFlow
	for _, cf := range s.flows {
		if cf.Amount < 0 {
			investments = append(investments, cf)
		}
	}
	labels := distinctDates(s.flows, end)

	points := make([]WealthPoint, 0, len(labels))
	invested := 0.0
	next := 0
	for _, label := range labels {
		at := label.Time()
		for next < len(investments) && !investments[next].Date.Time().After(at) {
			invested += math.Abs(investments[next].Amount)
			next++
		}
		value := 0.0
		for _, cf := range investments {
			if cf.Date.Time().After(at) {
				break
			}
			value += math.Abs(cf.Amount) * growth(rate, cf.Date.Time(), at)
		}
		points = append(points, WealthPoint{Date: label, Invested: invested, Value: value})
	}
	return points, nil
}

// Performance aggregates the net cash flow per date and compounds every flow
// up to that date at rate.
func Performance(s Series, rate float64) ([]PerformancePoint, error) {
	if !validRate(rate) {
		return nil, ErrInvalidRate
	}

	labels := distinctDates(s.flows, nil)
	points := make([]PerformancePoint, 0, len(labels))
	for _, label := range labels {
		at := label.Time()
		var net, value float64
		for _, cf := range s.flows {
			d := cf.Date.Time()
			if d.After(at) {
				break
			}
			if d.Equal(at) {
				net += cf.Amount
			}
			value += cf.Amount * growth(rate, d, at)
		}
		points = append(points, PerformancePoint{Date: label, NetCash: net, Value: value})
	}
	return points, nil
}

// growth is the Actual/365 compounding factor from start to end.
func growth(rate float64, start, end time.Time) float64 {
	return math.Pow(1+rate, actual365(start, end))
}

// distinctDates returns the sorted flow dates without repeats, plus end when it
// is not already one of them.
func distinctDates(sorted []CashFlow, end *time.Time) []Fecha {
	var out []Fecha
	for i, cf := range sorted {
		if i > 0 && cf.Date.Time().Equal(sorted[i-1].Date.Time()) {
			continue
		}
		out = append(out, cf.Date)
	}
	if end == nil {
		return out
	}

	e := NewFecha(*end)
	for i, d := range out {
		if d.Time().Equal(e.Time()) {
			return out
		}
		if d.Time().After(e.Time()) {
			out = append(out[:i], append([]Fecha{e}, out[i:]...)...)
			return out
		}
	}
	return append(out, e)
}
