package control

import (
	"github.com/montanaflynn/stats"
)

// MovingAverage is a finite impulse response moving-average filter over the last Size samples.
type MovingAverage struct {
	window []float64
	pos    int
	filled int
}

// NewMovingAverage returns a filter averaging the last size samples. A size below one is
// treated as one.
func NewMovingAverage(size int) *MovingAverage {
	if size < 1 {
		size = 1
	}
	return &MovingAverage{window: make([]float64, size)}
}

// Next adds a sample and returns the mean of the samples currently in the window.
func (f *MovingAverage) Next(x float64) float64 {
	f.window[f.pos] = x
	f.pos = (f.pos + 1) % len(f.window)
	if f.filled < len(f.window) {
		f.filled++
	}
	return f.Value()
}

// Value returns the current mean without adding a sample; zero before the first sample.
func (f *MovingAverage) Value() float64 {
	if f.filled == 0 {
		return 0
	}
	mean, err := stats.Mean(stats.Float64Data(f.window[:f.filled]))
	if err != nil {
		return 0
	}
	return mean
}

// Reset clears the window.
func (f *MovingAverage) Reset() {
	for i := range f.window {
		f.window[i] = 0
	}
	f.pos = 0
	f.filled = 0
}
