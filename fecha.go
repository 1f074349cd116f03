package xirr

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the layout used for every date that crosses a boundary (JSON, CSV, SQL).
const DateFormat = "2006-01-02"

// Fecha is a calendar date without time of day.
type Fecha time.Time

// NewFecha truncates t to its calendar date in UTC.
func NewFecha(t time.Time) Fecha {
	return Fecha(dateOnly(t))
}

// ParseFecha parses a date in DateFormat.
func ParseFecha(s string) (Fecha, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Fecha{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Fecha(t), nil
}

func (f Fecha) Time() time.Time { return time.Time(f) }

func (f Fecha) IsZero() bool { return time.Time(f).IsZero() }

func (f Fecha) String() string { return time.Time(f).Format(DateFormat) }

func (f Fecha) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Fecha) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseFecha(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// dateOnly drops the time of day so that day distances are whole numbers.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
