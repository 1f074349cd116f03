package xirr

import "math"

const (
	bracketLow         = -0.999999
	bracketMinHigh     = 0.1
	bracketExpansions  = 40
	bracketLowProbes   = 20
	bracketLowProbeGap = 0.01
)

// findBracket looks for rates low < high where NPV changes sign (or is zero at
// one end). It first grows high geometrically from max(0.1, 2*guess), then
// walks low upward from just above -100% against the last high.
//
// The search is a heuristic: when NPV(r) crosses zero more than once, the root
// found depends on which bracket turns up first.
func findBracket(ev evaluator, guess float64) (low, high float64, ok bool) {
	low = bracketLow
	high = math.Max(bracketMinHigh, guess*2)
	fLow := ev.npv(low)
	fHigh := ev.npv(high)
	if isFinite(fLow) && isFinite(fHigh) && fLow*fHigh <= 0 {
		return low, high, true
	}

	for i := 0; i < bracketExpansions; i++ {
		high = high*2 + 0.05
		fHigh = ev.npv(high)
		if !isFinite(fHigh) {
			break
		}
		if isFinite(fLow) && fLow*fHigh <= 0 {
			return low, high, true
		}
	}

	for i := 0; i < bracketLowProbes; i++ {
		low = bracketLow + float64(i+1)*bracketLowProbeGap
		fLow = ev.npv(low)
		if !isFinite(fLow) {
			continue
		}
		if isFinite(fHigh) && fLow*fHigh <= 0 {
			return low, high, true
		}
	}

	return 0, 0, false
}
