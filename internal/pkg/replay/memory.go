package replay

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/otpbite/internal/pkg/clock"
)

// Memory keeps claims in process. Expired entries are dropped on the next Claim.
type Memory struct {
	clock clock.Clocker

	mu      sync.Mutex
	expires map[string]time.Time
}

func NewMemory(clk clock.Clocker) *Memory {
	return &Memory{
		clock:   clk,
		expires: make(map[string]time.Time),
	}
}

func (m *Memory) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, exp := range m.expires {
		if !now.Before(exp) {
			delete(m.expires, k)
		}
	}

	if _, used := m.expires[key]; used {
		return false, nil
	}

	m.expires[key] = now.Add(ttl)

	return true, nil
}

// Len returns the number of live claims.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.expires)
}
