package xirr

import (
	"math"
	"sort"
	"time"
)

// CashFlow is one dated amount. Negative amounts leave the investor
// (contributions), positive amounts return to the investor (redemptions).
type CashFlow struct {
	Date   Fecha   `json:"date"`
	Amount float64 `json:"amount"`
}

// Series is a validated list of cash flows in ascending date order.
// Build one with Normalize or NewSeries.
type Series struct {
	flows []CashFlow
	ev    evaluator
}

// Normalize pairs amounts with dates, validates them and sorts the result by date.
func Normalize(amounts []float64, dates []time.Time) (Series, error) {
	if len(amounts) != len(dates) {
		return Series{}, ErrLengthMismatch
	}
	flows := make([]CashFlow, len(amounts))
	for i := range amounts {
		flows[i] = CashFlow{Date: Fecha(dates[i]), Amount: amounts[i]}
	}
	return NewSeries(flows)
}

// NewSeries validates flows and returns them sorted by date. The input slice is
// not modified.
func NewSeries(flows []CashFlow) (Series, error) {
	if len(flows) < 2 {
		return Series{}, ErrTooFewFlows
	}

	sorted := make([]CashFlow, len(flows))
	for i, cf := range flows {
		if math.IsNaN(cf.Amount) || math.IsInf(cf.Amount, 0) {
			return Series{}, ErrInvalidAmount
		}
		if cf.Date.IsZero() {
			return Series{}, ErrMissingDate
		}
		sorted[i] = CashFlow{Date: NewFecha(cf.Date.Time()), Amount: cf.Amount}
	}
	if !hasPositiveAndNegative(sorted) {
		return Series{}, ErrNoSignChange
	}

	// Only the distance to the first date matters, so same-day order is irrelevant.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Time().Before(sorted[j].Date.Time())
	})

	return Series{flows: sorted, ev: newEvaluator(sorted)}, nil
}

// Flows returns a copy of the sorted cash flows.
func (s Series) Flows() []CashFlow {
	out := make([]CashFlow, len(s.flows))
	copy(out, s.flows)
	return out
}

func (s Series) Len() int { return len(s.flows) }

// Start is the date every flow is discounted to.
func (s Series) Start() time.Time {
	if len(s.flows) == 0 {
		return time.Time{}
	}
	return s.flows[0].Date.Time()
}

// End is the date of the last flow.
func (s Series) End() time.Time {
	if len(s.flows) == 0 {
		return time.Time{}
	}
	return s.flows[len(s.flows)-1].Date.Time()
}

func hasPositiveAndNegative(flows []CashFlow) bool {
	min, max := minMaxSlice(flows)
	return min < 0 && max > 0
}

func minMaxSlice(flows []CashFlow) (float64, float64) {
	min := math.MaxFloat64
	max := -min
	for _, cf := range flows {
		if cf.Amount > max {
			max = cf.Amount
		}
		if cf.Amount < min {
			min = cf.Amount
		}
	}
	return min, max
}
