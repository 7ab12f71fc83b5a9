package control

import "time"

// LatencyCompensate extrapolates a sampled position forward by the age of the sample using the
// sampled velocity.
func LatencyCompensate(position, velocity float64, latency time.Duration) float64 {
	return position + velocity*latency.Seconds()
}
