package xirr

import (
	"errors"
	"fmt"
)

// ErrNoSolution matches every failure of Solve. Callers that only need to know
// whether a rate can be displayed test for this one.
var ErrNoSolution = errors.New("xirr: no solution")

var (
	ErrLengthMismatch = noSolution("values and dates must have the same length")
	ErrTooFewFlows    = noSolution("at least two cash flows are required")
	ErrNoSignChange   = noSolution("the cash flow must contain at least one positive value and one negative value")
	ErrInvalidAmount  = noSolution("cash flow amounts must be finite")
	ErrNoBracket      = noSolution("no sign change found in the searched rate range")
	ErrNotConverged   = noSolution("solution didn't converge")
)

var (
	ErrInvalidOptions = errors.New("xirr: invalid solver options")
	ErrInvalidRate    = errors.New("xirr: rate must be finite and greater than -1")
	ErrMissingDate    = errors.New("xirr: every cash flow needs a date")
)

type solveError struct {
	msg string
}

func noSolution(msg string) error { return &solveError{msg: msg} }

func (e *solveError) Error() string { return "xirr: " + e.msg }

func (e *solveError) Is(target error) bool { return target == ErrNoSolution }

func invalidOptions(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))
}
