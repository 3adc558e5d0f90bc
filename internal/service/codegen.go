package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// CodeGenerator produces one verification code per call. The code is a
// low-entropy, rate-limited, short-TTL secret; the attempt ceiling and
// expiry are the primary defenses, not raw entropy.
type CodeGenerator interface {
	Generate() string
}

type randCodeGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewCodeGenerator() CodeGenerator {
	return &randCodeGenerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Generate returns a uniformly distributed 6-digit code in [100000, 999999].
func (g *randCodeGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("%06d", 100000+g.rng.Intn(900000))
}
