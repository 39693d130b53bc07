// Package problems provides ready-made benchmark problems for the search
// engine: a shifted quadratic bowl, the Rosenbrock function, and a
// travelling-salesman tour over the twenty largest US cities. They back
// the run service and the CLI, and double as engine test fixtures.
package problems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Quadratic is the shifted sphere benchmark over a two-dimensional state:
// f(x, y) = (x - tx)^2 + (y - ty)^2, minimum 0 at the target point.
type Quadratic struct {
	target []float64
	rng    *rand.Rand
}

// NewQuadratic creates the benchmark with the given target point.
func NewQuadratic(target []float64, seed int64) *Quadratic {
	return &Quadratic{
		target: append([]float64(nil), target...),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Move displaces the point by a gaussian amplitude in a uniformly random
// direction.
func (q *Quadratic) Move(state []float64) {
	a := q.rng.NormFloat64()
	theta := q.rng.Float64() * 2 * math.Pi
	state[0] += a * math.Cos(theta)
	state[1] += a * math.Sin(theta)
}

// Energy returns the squared euclidean distance to the target.
func (q *Quadratic) Energy(state []float64) (float64, error) {
	d := floats.Distance(state, q.target, 2)
	return d * d, nil
}
