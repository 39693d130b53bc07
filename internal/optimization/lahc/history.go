package lahc

import "math"

// History is the fixed-length circular record of the best energy seen at
// each position of the last L accepted-trajectory steps, plus running mean
// and variance maintained incrementally so telemetry never rescans the
// buffer.
type History struct {
	slots []float64
	mean  float64
	m2    float64 // sum of squared deviations from the mean
}

// NewHistory creates a buffer of the given length with every slot, and the
// running mean, seeded with the starting energy. Length must be >= 1.
func NewHistory(length int, seed float64) *History {
	slots := make([]float64, length)
	for i := range slots {
		slots[i] = seed
	}
	return &History{
		slots: slots,
		mean:  seed,
	}
}

// Len returns the buffer length L.
func (h *History) Len() int {
	return len(h.slots)
}

// At returns the slot value for the given step, indexed step mod L.
func (h *History) At(step int) float64 {
	return h.slots[step%len(h.slots)]
}

// RecordIfImproved replaces the slot for step with energy if it is a
// strict improvement and folds the replacement into the running
// statistics. On a non-improving energy nothing changes, statistics
// included. It reports whether the slot was replaced.
//
// Slot values only ever decrease, so the mean is non-increasing over a
// run's lifetime.
func (h *History) RecordIfImproved(step int, energy float64) bool {
	v := step % len(h.slots)
	old := h.slots[v]
	if energy >= old {
		return false
	}
	h.slots[v] = energy

	// Replacement form of Welford's update: adjust the mean by the slot
	// delta, then the squared deviations against both the old and the
	// new mean.
	n := float64(len(h.slots))
	oldMean := h.mean
	h.mean += (energy - old) / n
	h.m2 += (energy - old) * (energy + old - oldMean - h.mean)
	return true
}

// Mean returns the running mean of the buffer.
func (h *History) Mean() float64 {
	return h.mean
}

// Variance returns the running population variance of the buffer.
func (h *History) Variance() float64 {
	v := h.m2 / float64(len(h.slots))
	if v < 0 {
		// Guard against rounding drift near zero.
		return 0
	}
	return v
}

// CoV returns the coefficient of variation, sqrt(variance)/mean, or 0
// when the mean is 0.
func (h *History) CoV() float64 {
	if h.mean == 0 {
		return 0
	}
	return math.Sqrt(h.Variance()) / h.mean
}
