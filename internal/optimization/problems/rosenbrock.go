package problems

import (
	"math"
	"math/rand"
)

// Point is a two-dimensional search state with its own cloning capability,
// used with the delegated copy strategy.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clone returns an independent copy of the point.
func (p *Point) Clone() *Point {
	c := *p
	return &c
}

// Rosenbrock is the classic banana-valley benchmark:
//
//	f(x, y) = (a-x)^2 + b(y-x^2)^2
//
// with the exact minimum at (a, a^2) for b > 0. The narrow curved valley
// makes it a harder target for local search than the quadratic bowl.
type Rosenbrock struct {
	a, b float64
	rng  *rand.Rand
}

// NewRosenbrock creates the benchmark with the given a and b parameters.
func NewRosenbrock(a, b float64, seed int64) *Rosenbrock {
	return &Rosenbrock{a: a, b: b, rng: rand.New(rand.NewSource(seed))}
}

// Move displaces the point by a gaussian amplitude in a uniformly random
// direction.
func (r *Rosenbrock) Move(state *Point) {
	a := r.rng.NormFloat64()
	theta := r.rng.Float64() * 2 * math.Pi
	state.X += a * math.Cos(theta)
	state.Y += a * math.Sin(theta)
}

// Energy evaluates the Rosenbrock function at the point.
func (r *Rosenbrock) Energy(state *Point) (float64, error) {
	dx := r.a - state.X
	dy := state.Y - state.X*state.X
	return dx*dx + r.b*dy*dy, nil
}

// ExactSolution returns the analytic minimum (a, a^2).
func (r *Rosenbrock) ExactSolution() *Point {
	return &Point{X: r.a, Y: r.a * r.a}
}
