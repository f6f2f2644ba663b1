package draw

import (
	"math/rand/v2"

	"github.com/jscyril/audio_tombola/api"
)

// globalSource draws from the runtime-seeded math/rand/v2 generator
type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// seededSource is a reproducible source for tests and replays of a game
type seededSource struct {
	r *rand.Rand
}

func (s *seededSource) IntN(n int) int {
	return s.r.IntN(n)
}

// NewRandomSource returns the default source. IntN is unbiased over [0, n).
func NewRandomSource() api.RandomSource {
	return globalSource{}
}

// NewSeededSource returns a deterministic source. It is not safe for
// concurrent use; the engine only calls it under its lock.
func NewSeededSource(seed uint64) api.RandomSource {
	return &seededSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}
