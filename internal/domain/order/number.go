package order

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const numberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NumberGenerator produces human-readable order numbers of the form
// ORD-20260830-7KQ2. The random suffix is short, so uniqueness is enforced
// by the repository's unique constraint with a retry on conflict rather
// than assumed here.
type NumberGenerator struct {
	mu     sync.Mutex
	random *rand.Rand
	now    func() time.Time
}

func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{
		random: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = numberAlphabet[g.random.Intn(len(numberAlphabet))]
	}
	return fmt.Sprintf("ORD-%s-%s", g.now().Format("20060102"), suffix)
}
