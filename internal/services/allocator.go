package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sowlabs/transfer-office/pkg/prom"
)

// ErrAllocationExhausted is returned when the allocator gives up
// finding a free code. With 23,400 combinations this only happens when
// the namespace is close to full or the probe keeps racing inserts.
var ErrAllocationExhausted = errors.New("code allocation attempts exhausted")

// CodeProber answers whether a code is taken anywhere in the shared
// transfer/stock namespace.
type CodeProber interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

const DefaultAllocatorAttempts = 25

// CodeAllocator draws random candidate codes and probes storage until
// it finds a free one. The probe is read-only; the unique index on the
// destination table closes the remaining check-then-act window, and
// callers re-draw on a duplicate-key insert.
type CodeAllocator struct {
	codes       CodeProber
	maxAttempts int
}

func NewCodeAllocator(codes CodeProber, maxAttempts int) *CodeAllocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultAllocatorAttempts
	}
	return &CodeAllocator{
		codes:       codes,
		maxAttempts: maxAttempts,
	}
}

// Generate returns a code of the form letter + three digits, e.g.
// "Q482", that no transfer or stock currently holds.
func (a *CodeAllocator) Generate(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		code := randomCode()
		exists, err := a.codes.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("probe code %s: %w", code, err)
		}
		if !exists {
			prom.ObserveCodeAllocationAttempts(float64(attempt))
			return code, nil
		}
	}
	return "", ErrAllocationExhausted
}

func randomCode() string {
	letter := byte('A' + rand.IntN(26))
	number := 100 + rand.IntN(900)
	return fmt.Sprintf("%c%d", letter, number)
}
