package mechanism

import (
	"fmt"

	"github.com/pkg/errors"
)

// SetpointErrorKind says which bound a rejected setpoint violated.
type SetpointErrorKind int

// The range violations.
const (
	SetpointTooLow SetpointErrorKind = iota
	SetpointTooHigh
)

func (k SetpointErrorKind) String() string {
	if k == SetpointTooLow {
		return "SetpointTooLow"
	}
	return "SetpointTooHigh"
}

// SetpointError is returned by SetTarget for values outside the axis range. It echoes the
// violated bound and the requested value.
type SetpointError struct {
	Kind      SetpointErrorKind
	Axis      string
	Bound     float64
	Requested float64
}

func (e *SetpointError) Error() string {
	relation := "below minimum"
	if e.Kind == SetpointTooHigh {
		relation = "above maximum"
	}
	return fmt.Sprintf("%s: %s setpoint %v is %s %v", e.Kind, e.Axis, e.Requested, relation, e.Bound)
}

// NewSetpointTooLowError returns the error for a setpoint under min.
func NewSetpointTooLowError(axis string, bound, requested float64) error {
	return &SetpointError{Kind: SetpointTooLow, Axis: axis, Bound: bound, Requested: requested}
}

// NewSetpointTooHighError returns the error for a setpoint over max.
func NewSetpointTooHighError(axis string, bound, requested float64) error {
	return &SetpointError{Kind: SetpointTooHigh, Axis: axis, Bound: bound, Requested: requested}
}

// IsSetpointTooLow reports whether err is, or wraps, a SetpointTooLow error.
func IsSetpointTooLow(err error) bool {
	var se *SetpointError
	return errors.As(err, &se) && se.Kind == SetpointTooLow
}

// IsSetpointTooHigh reports whether err is, or wraps, a SetpointTooHigh error.
func IsSetpointTooHigh(err error) bool {
	var se *SetpointError
	return errors.As(err, &se) && se.Kind == SetpointTooHigh
}
