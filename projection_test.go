package xirr

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sipSeries(t *testing.T) Series {
	return mustSeries(t,
		[]float64{-10000, -10000, -10000, 60000},
		[]time.Time{day(2021, 1, 1), day(2022, 1, 1), day(2023, 1, 1), day(2024, 1, 1)})
}

func TestWealthProjection_ZeroRate(t *testing.T) {
	points, err := WealthProjection(sipSeries(t), 0, nil)
	require.NoError(t, err)

	require.Len(t, points, 4)
	for i, want := range []float64{10000, 20000, 30000, 30000} {
		assert.Equal(t, want, points[i].Invested)
		assert.InDelta(t, want, points[i].Value, 1e-9)
	}
}

func TestWealthProjection_AtSolvedRateMatchesRedemption(t *testing.T) {
	s := sipSeries(t)
	res, err := Solve(s, DefaultOptions())
	require.NoError(t, err)

	points, err := WealthProjection(s, res.Rate, nil)
	require.NoError(t, err)

	last := points[len(points)-1]
	assert.Equal(t, "2024-01-01", last.Date.String())
	assert.InDelta(t, 60000, last.Value, 1e-3)
}

func TestWealthProjection_EndDate(t *testing.T) {
	s := mustSeries(t, []float64{-1000, 1100}, []time.Time{day(2023, 1, 1), day(2024, 1, 1)})

	between := day(2023, 7, 1)
	points, err := WealthProjection(s, 0.1, &between)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2023-07-01", points[1].Date.String())
	assert.Equal(t, 1000.0, points[1].Invested)
	assert.InDelta(t, 1000*math.Pow(1.1, 181.0/365), points[1].Value, 1e-9)

	after := day(2025, 1, 1)
	points, err = WealthProjection(s, 0.1, &after)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2025-01-01", points[2].Date.String())

	same := day(2024, 1, 1)
	points, err = WealthProjection(s, 0.1, &same)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestPerformance_NetCashPerDate(t *testing.T) {
	s := mustSeries(t,
		[]float64{-1000, -500, 300, 1400},
		[]time.Time{day(2023, 1, 1), day(2023, 1, 1), day(2023, 6, 1), day(2024, 1, 1)})

	points, err := Performance(s, 0)
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, -1500.0, points[0].NetCash)
	assert.Equal(t, -1500.0, points[0].Value)
	assert.Equal(t, 300.0, points[1].NetCash)
	assert.Equal(t, -1200.0, points[1].Value)
	assert.Equal(t, 200.0, points[2].Value)
}

func TestPerformance_EndsAtZeroAtSolvedRate(t *testing.T) {
	s := sipSeries(t)
	res, err := Solve(s, DefaultOptions())
	require.NoError(t, err)

	points, err := Performance(s, res.Rate)
	require.NoError(t, err)

	assert.InDelta(t, 0, points[len(points)-1].Value, 1e-3)
}

func TestProjection_InvalidRate(t *testing.T) {
	s := sipSeries(t)
	for _, rate := range []float64{math.NaN(), -1, math.Inf(1)} {
		_, err := WealthProjection(s, rate, nil)
		assert.ErrorIs(t, err, ErrInvalidRate)
		_, err = Performance(s, rate)
		assert.ErrorIs(t, err, ErrInvalidRate)
	}
}

func TestSummarize(t *testing.T) {
	s := mustSeries(t,
		[]float64{-0.1, -0.2, 0.35},
		[]time.Time{day(2023, 3, 1), day(2023, 1, 1), day(2023, 6, 1)})

	sum := Summarize(s)

	assert.True(t, sum.Invested.Equal(decimal.RequireFromString("0.3")))
	assert.True(t, sum.Returned.Equal(decimal.RequireFromString("0.35")))
	assert.True(t, sum.NetGain.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, 3, sum.Flows)
	assert.Equal(t, "2023-01-01", sum.First.String())
	assert.Equal(t, "2023-06-01", sum.Last.String())
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "12.34%", FormatRate(0.1234))
	assert.Equal(t, "-20.00%", FormatRate(-0.2))
	assert.Equal(t, Placeholder, FormatRate(math.NaN()))
	assert.Equal(t, Placeholder, FormatRate(math.Inf(1)))
}

func TestFormatShort(t *testing.T) {
	assert.Equal(t, "₹950", FormatShort(950, "₹"))
	assert.Equal(t, "₹12.50K", FormatShort(12500, "₹"))
	assert.Equal(t, "-$3.00M", FormatShort(-3e6, "$"))
	assert.Equal(t, "$1.20B", FormatShort(1.2e9, "$"))
	assert.Equal(t, Placeholder, FormatShort(math.NaN(), "$"))
}

func TestFecha_JSON(t *testing.T) {
	var cf CashFlow
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-06-15","amount":-10000}`), &cf))
	assert.Equal(t, day(2024, 6, 15), cf.Date.Time())
	assert.Equal(t, -10000.0, cf.Amount)

	out, err := json.Marshal(cf)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-06-15","amount":-10000}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"15/06/2024"}`), &cf))
	assert.Error(t, json.Unmarshal([]byte(`{"date":20240615}`), &cf))
}
