package replay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpbite/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Claim(t *testing.T) {
	clk := clock.NewFixed(time.Unix(1000, 0))
	m := NewMemory(clk)
	ctx := context.Background()

	ok, err := m.Claim(ctx, "rfc:1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Claim(ctx, "rfc:1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Claim(ctx, "rfc:2", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(30 * time.Second)

	ok, err = m.Claim(ctx, "rfc:1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_InvalidTTL(t *testing.T) {
	m := NewMemory(clock.New())

	ok, err := m.Claim(context.Background(), "k", 0)

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestMemory_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	m := NewMemory(clock.New())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Claim(context.Background(), "same", time.Minute); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
