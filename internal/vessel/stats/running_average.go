package stats

import "fmt"

// RunningAverage is an unbounded cumulative mean that also remembers the
// most recent sample. The zero value is ready to use.
type RunningAverage struct {
	sum   float64
	count float64
	last  float64
}

// NewRunningAverage returns a tracker seeded with a single sample.
func NewRunningAverage(seed float64) *RunningAverage {
	return &RunningAverage{sum: seed, count: 1, last: seed}
}

// Add records a sample.
func (r *RunningAverage) Add(x float64) {
	r.sum += x
	r.count++
	r.last = x
}

// Average returns the mean of all samples, or 0 when empty.
func (r *RunningAverage) Average() float64 {
	if r.count == 0 {
		return 0
	}
	return r.sum / r.count
}

// Last returns the most recent sample (0 when empty).
func (r *RunningAverage) Last() float64 {
	return r.last
}

// Count returns the (possibly fractional, after Split) sample weight.
func (r *RunningAverage) Count() float64 {
	return r.count
}

// Split discounts the accumulated history when a statistic is inherited by
// a detached child: the sum is quartered and the count halved, so the
// average halves as well.
func (r *RunningAverage) Split() *RunningAverage {
	if r.count > 0 {
		r.sum /= 4
		r.count /= 2
	}
	return r
}

// Copy returns an independent clone.
func (r *RunningAverage) Copy() *RunningAverage {
	c := *r
	return &c
}

func (r *RunningAverage) String() string {
	return fmt.Sprintf("%g (%g)", r.Average(), r.count)
}
