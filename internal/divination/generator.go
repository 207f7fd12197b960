// Package divination implements the three-draw ritual: the draw generator
// and the single-flight session state machine that sequences the draws.
package divination

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Draw range and ritual size.
const (
	MinDraw    = 100
	MaxDraw    = 999
	RitualSize = 3
)

// Generator produces one draw value per call.
type Generator interface {
	Draw() int
}

// RandomGenerator draws uniformly from [MinDraw, MaxDraw].
// A *rand.Rand is not safe for concurrent use, so access is serialized.
type RandomGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomGenerator returns a generator with a fixed seed. Useful for
// reproducible rituals in tests.
func NewRandomGenerator(seed int64) *RandomGenerator {
	return &RandomGenerator{rng: rand.New(rand.NewSource(seed))}
}

// NewSeededGenerator returns a generator seeded from crypto/rand.
func NewSeededGenerator() (*RandomGenerator, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return NewRandomGenerator(int64(binary.LittleEndian.Uint64(b[:]))), nil
}

// Draw returns a value in the inclusive range [MinDraw, MaxDraw].
func (g *RandomGenerator) Draw() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return MinDraw + g.rng.Intn(MaxDraw-MinDraw+1)
}

// InRange reports whether v is a valid draw value.
func InRange(v int) bool {
	return v >= MinDraw && v <= MaxDraw
}
