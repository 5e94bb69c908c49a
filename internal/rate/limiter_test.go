package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute).WithClock(func() time.Time { return now })

	// 1) dos hits pasan
	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "pk_test_a")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	// 2) el tercero se rechaza con retry-after hasta el fin de la ventana
	now = now.Add(15 * time.Second)
	res, err := l.Allow(ctx, "pk_test_a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, 45*time.Second, res.RetryAfter)
	assert.Equal(t, 45, res.RetryAfterSeconds())

	// 3) otra key tiene su propio contador
	res, err = l.Allow(ctx, "pk_test_b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// 4) la ventana siguiente arranca de cero
	now = now.Add(time.Minute)
	res, err = l.Allow(ctx, "pk_test_a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.CurrentHits)
}

func TestNewLimiterWithoutRedis(t *testing.T) {
	_, ok := NewLimiter(nil, "", 10, time.Second).(*MemoryLimiter)
	assert.True(t, ok)
}
