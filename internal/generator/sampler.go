package generator

import (
	"math/rand/v2"
	"sync"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

// Sampler draws one candidate combination. Red is returned in draw order.
type Sampler interface {
	Sample() (red []int, blue int)
}

// RandSampler samples without replacement from a math/rand/v2 source.
// It is safe for concurrent use.
type RandSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSampler seeds a PCG source. A zero seed picks a random one.
func NewRandSampler(seed uint64) *RandSampler {
	hi, lo := seed, seed^0x9e3779b97f4a7c15
	if seed == 0 {
		hi, lo = rand.Uint64(), rand.Uint64()
	}
	return &RandSampler{rng: rand.New(rand.NewPCG(hi, lo))}
}

// Sample runs a partial Fisher-Yates shuffle over the red pool.
func (s *RandSampler) Sample() ([]int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pool [lottery.RedMax]int
	for i := range pool {
		pool[i] = lottery.RedMin + i
	}
	red := make([]int, lottery.RedCount)
	for i := 0; i < lottery.RedCount; i++ {
		j := i + s.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		red[i] = pool[i]
	}
	blue := lottery.BlueMin + s.rng.IntN(lottery.BlueMax-lottery.BlueMin+1)
	return red, blue
}
