package xirr

import (
	"time"
)

// DaysInYear is the Actual/365 fixed denominator.
const DaysInYear = 365.0

// daysBetween returns the signed number of calendar days from startDate to endDate.
func daysBetween(startDate, endDate time.Time) float64 {
	return dateOnly(endDate).Sub(dateOnly(startDate)).Hours() / 24
}

// actual365: días reales / 365
func actual365(startDate, endDate time.Time) float64 {
	return daysBetween(startDate, endDate) / DaysInYear
}
