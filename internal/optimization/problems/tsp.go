package problems

import (
	"math"
	"math/rand"
)

// earthRadiusMiles is the radius used for great-circle distances.
const earthRadiusMiles = 3963

// city is a named latitude/longitude coordinate.
type city struct {
	name     string
	lat, lon float64
}

// usCities are the twenty largest US cities, the stock tour dataset.
var usCities = []city{
	{"New York City", 40.72, 74.00},
	{"Los Angeles", 34.05, 118.25},
	{"Chicago", 41.88, 87.63},
	{"Houston", 29.77, 95.38},
	{"Phoenix", 33.45, 112.07},
	{"Philadelphia", 39.95, 75.17},
	{"San Antonio", 29.53, 98.47},
	{"Dallas", 32.78, 96.80},
	{"San Diego", 32.78, 117.15},
	{"San Jose", 37.30, 121.87},
	{"Detroit", 42.33, 83.05},
	{"San Francisco", 37.78, 122.42},
	{"Jacksonville", 30.32, 81.70},
	{"Indianapolis", 39.78, 86.15},
	{"Austin", 30.27, 97.77},
	{"Columbus", 39.98, 82.98},
	{"Fort Worth", 32.75, 97.33},
	{"Charlotte", 35.23, 80.85},
	{"Memphis", 35.12, 89.97},
	{"Baltimore", 39.28, 76.62},
}

// greatCircle returns the distance in miles between two coordinates.
func greatCircle(a, b city) float64 {
	lat1, lon1 := a.lat*math.Pi/180, a.lon*math.Pi/180
	lat2, lon2 := b.lat*math.Pi/180, b.lon*math.Pi/180
	return earthRadiusMiles * math.Acos(
		math.Sin(lat1)*math.Sin(lat2)+
			math.Cos(lat1)*math.Cos(lat2)*math.Cos(lon1-lon2))
}

// TSP is a travelling-salesman tour over a fixed city set. The state is a
// permutation of city indices; the tour is closed. The flat []int state
// pairs with the slice copy strategy.
type TSP struct {
	cities []city
	dist   [][]float64
	rng    *rand.Rand
}

// NewTSP creates the benchmark over the stock twenty-city dataset.
func NewTSP(seed int64) *TSP {
	n := len(usCities)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			if i != j {
				dist[i][j] = greatCircle(usCities[i], usCities[j])
			}
		}
	}
	return &TSP{
		cities: usCities,
		dist:   dist,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// InitialTour returns a randomly ordered itinerary.
func (t *TSP) InitialTour() []int {
	tour := t.rng.Perm(len(t.cities))
	return tour
}

// CityName returns the name of the city at index i.
func (t *TSP) CityName(i int) string {
	return t.cities[i].name
}

// Move swaps two cities in the tour.
func (t *TSP) Move(state []int) {
	a := t.rng.Intn(len(state))
	b := t.rng.Intn(len(state))
	state[a], state[b] = state[b], state[a]
}

// Energy returns the closed-tour length in miles.
func (t *TSP) Energy(state []int) (float64, error) {
	e := 0.0
	prev := state[len(state)-1]
	for _, c := range state {
		e += t.dist[prev][c]
		prev = c
	}
	return e, nil
}
