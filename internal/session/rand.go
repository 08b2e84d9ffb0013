package session

import "math/rand"

// Randomizer abstracts the randomness used for theme choice and asset
// shuffling so tests can pin deterministic permutations.
type Randomizer interface {
	// Intn returns a uniform value in [0, n). n must be positive.
	Intn(n int) int
	// Shuffle permutes n elements through the provided swap function.
	Shuffle(n int, swap func(i, j int))
}

type seededRand struct {
	rng *rand.Rand
}

// NewRand returns a Randomizer backed by math/rand with the given seed.
func NewRand(seed int64) Randomizer {
	return &seededRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *seededRand) Intn(n int) int {
	return r.rng.Intn(n)
}

func (r *seededRand) Shuffle(n int, swap func(i, j int)) {
	r.rng.Shuffle(n, swap)
}
