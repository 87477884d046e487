package services

import (
	"math/rand/v2"
	"sync"
)

// RandomShuffler permutes numbers with an unbiased Fisher-Yates shuffle
type RandomShuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomShuffler creates a shuffler backed by a randomly seeded source
func NewRandomShuffler() *RandomShuffler {
	return &RandomShuffler{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededShuffler creates a shuffler whose permutations are reproducible
func NewSeededShuffler(seed uint64) *RandomShuffler {
	return &RandomShuffler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Shuffle permutes numbers in place
func (r *RandomShuffler) Shuffle(numbers []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(numbers) - 1; i > 0; i-- {
		j := r.rng.IntN(i + 1)
		numbers[i], numbers[j] = numbers[j], numbers[i]
	}
}
