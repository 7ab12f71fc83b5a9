package actuator

import "github.com/pkg/errors"

// NewPropertyUnsupportedError returns an error representing the need
// for an actuator to support a particular property.
func NewPropertyUnsupportedError(prop Properties, actuatorName string) error {
	return errors.Errorf("actuator named %s has wrong support for property %#v", actuatorName, prop)
}

// NewPowerOutOfRangeError returns an error for an open-loop command outside [-1, 1].
func NewPowerOutOfRangeError(actuatorName string, pct float64) error {
	return errors.Errorf("actuator named %s cannot be driven at power %.3f, must be within [-1, 1]", actuatorName, pct)
}
