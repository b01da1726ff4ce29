package numbering

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/destination"
)

// ExistsFunc probes storage for a ticket number already in use in the
// destination's table. Injected so the generator stays free of SQL.
type ExistsFunc func(ctx context.Context, dest destination.Destination, number string) (bool, error)

// Generator produces human-readable ticket numbers of the form
// <prefix><DDMMYY><3 digits>. Uniqueness is best effort: one existence
// probe and at most one fallback draw, never a loop. The storage
// layer's unique constraint stays the final authority.
type Generator struct {
	exists ExistsFunc
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator builds a generator backed by the given existence probe.
func NewGenerator(exists ExistsFunc) *Generator {
	return &Generator{
		exists: exists,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// draw takes one random sequence offset. rand.Rand is not safe for
// concurrent use and Generate runs from concurrent request handlers.
func (g *Generator) draw() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(1000)
}

// Generate returns a fresh ticket number scoped to the destination.
// Safe for concurrent use.
func (g *Generator) Generate(ctx context.Context, dest destination.Destination) (string, error) {
	now := g.now()
	datePart := now.Format("020106")

	// Microsecond-of-second plus a random offset keeps same-day
	// sequences spread out without serializing creation.
	seq := (now.Nanosecond()/1000 + g.draw()) % 1000
	candidate := fmt.Sprintf("%s%s%03d", dest.ISOPrefix, datePart, seq)

	taken, err := g.exists(ctx, dest, candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}

	// Single fallback draw; a residual collision surfaces as a unique
	// violation on insert and is handled there.
	fallback := fmt.Sprintf("%s%s%03d", dest.ISOPrefix, datePart, g.draw())
	return fallback, nil
}
