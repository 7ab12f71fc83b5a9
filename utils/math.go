// Package utils contains small numeric and error helpers shared by the superstructure packages.
package utils

import "math"

// Clamp limits value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// ClampPower clamps a percentage power to 1.0 or -1.0.
func ClampPower(pwr float64) float64 {
	return Clamp(pwr, -1.0, 1.0)
}

// Deadband zeroes inputs whose magnitude is below band and rescales the rest so the output
// still spans [-1, 1] without a jump at the band edge.
func Deadband(value, band float64) float64 {
	if math.Abs(value) < band {
		return 0
	}
	if band >= 1 {
		return 0
	}
	return Sign(value) * (math.Abs(value) - band) / (1 - band)
}

// Sign returns the sign of the float as a helper for getting
// the intended direction of travel of an axis.
func Sign(x float64) float64 {
	if x == 0 {
		return 0
	}
	if math.Signbit(x) {
		return -1.0
	}
	return 1.0
}

