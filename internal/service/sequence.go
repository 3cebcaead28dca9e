package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/repository"
)

// SequenceGenerator allocates human-readable, year-scoped numbers such as
// Q-2026-00042. Allocation is atomic in storage; this layer adds bounded
// retries and a fallback so numbering never blocks quotation or loan creation.
type SequenceGenerator struct {
	repo     repository.SequenceRepository
	attempts int
	now      func() time.Time
}

func NewSequenceGenerator(repo repository.SequenceRepository, attempts int) *SequenceGenerator {
	if attempts <= 0 {
		attempts = 3
	}
	return &SequenceGenerator{
		repo:     repo,
		attempts: attempts,
		now:      time.Now,
	}
}

// Next returns the next number for the given sequence domain. When the counter
// transaction keeps failing it falls back to a timestamp-derived identifier
// instead of failing the parent operation: sequential numbering is a
// traceability nicety, not a financial requirement.
func (g *SequenceGenerator) Next(ctx context.Context, seqDomain string) (string, error) {
	prefix := domain.SequencePrefix(seqDomain)
	if prefix == "" {
		return "", fmt.Errorf("unknown sequence domain %q", seqDomain)
	}

	year := g.now().Year()

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		count, err := g.repo.Increment(ctx, seqDomain, year)
		if err == nil {
			return fmt.Sprintf("%s-%d-%05d", prefix, year, count), nil
		}
		lastErr = err
	}

	log.Printf("sequence allocation for %s failed after %d attempts, using fallback: %v",
		seqDomain, g.attempts, lastErr)

	return g.fallback(prefix, year), nil
}

// fallback derives a nine-digit suffix from the current nanosecond clock. The
// width keeps it structurally distinct from the five-digit padded sequence
// space, so a fallback number cannot collide with a normally allocated one.
func (g *SequenceGenerator) fallback(prefix string, year int) string {
	suffix := g.now().UnixNano() % 1_000_000_000
	return fmt.Sprintf("%s-%d-%09d", prefix, year, suffix)
}
