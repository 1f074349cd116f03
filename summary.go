package xirr

import (
	"github.com/shopspring/decimal"
)

// Summary holds the plain totals shown next to a rate.
type Summary struct {
	Invested decimal.Decimal `json:"invested"`
	Returned decimal.Decimal `json:"returned"`
	NetGain  decimal.Decimal `json:"net_gain"`
	Flows    int             `json:"flows"`
	First    Fecha           `json:"first_date"`
	Last     Fecha           `json:"last_date"`
}

// Summarize adds up contributions (as a positive total) and redemptions.
func Summarize(s Series) Summary {
	sum := Summary{
		Invested: decimal.Zero,
		Returned: decimal.Zero,
		Flows:    len(s.flows),
	}
	for _, cf := range s.flows {
		amount := decimal.NewFromFloat(cf.Amount)
		if amount.IsNegative() {
			sum.Invested = sum.Invested.Add(amount.Abs())
		} else {
			sum.Returned = sum.Returned.Add(amount)
		}
	}
	sum.NetGain = sum.Returned.Sub(sum.Invested)
	if len(s.flows) > 0 {
		sum.First = s.flows[0].Date
		sum.Last = s.flows[len(s.flows)-1].Date
	}
	return sum
}
