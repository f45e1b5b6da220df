package ratelimit

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

func newTestLimiter(t *testing.T, limits Limits) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l := New(client, map[domain.Provider]Limits{domain.ProviderMeta: limits}, time.Minute)
	return l, mr
}

func TestAcquire_MinuteWindow(t *testing.T) {
	l, _ := newTestLimiter(t, Limits{PerMinute: 3, PerHour: 100})
	base := time.Date(2026, 5, 10, 12, 0, 15, 0, time.UTC)
	l.now = func() time.Time { return base }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := l.Acquire(ctx, domain.ProviderMeta, "act_1")
		require.NoError(t, err)
		p.Release()
	}

	_, err := l.Acquire(ctx, domain.ProviderMeta, "act_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, domain.KindRateLimited, domain.KindOf(err))
	assert.Equal(t, 45*time.Second, domain.RetryAfter(err))

	// outra conta tem janela própria
	_, err = l.Acquire(ctx, domain.ProviderMeta, "act_2")
	assert.NoError(t, err)

	// minuto seguinte libera
	l.now = func() time.Time { return base.Add(time.Minute) }
	_, err = l.Acquire(ctx, domain.ProviderMeta, "act_1")
	assert.NoError(t, err)
}

func TestAcquire_HourWindow(t *testing.T) {
	l, _ := newTestLimiter(t, Limits{PerMinute: 10, PerHour: 2})
	base := time.Date(2026, 5, 10, 12, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	ctx := context.Background()

	_, err := l.Acquire(ctx, domain.ProviderMeta, "act_1")
	require.NoError(t, err)
	l.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = l.Acquire(ctx, domain.ProviderMeta, "act_1")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, domain.ProviderMeta, "act_1")
	require.Error(t, err)
	assert.Equal(t, 28*time.Minute, domain.RetryAfter(err))
}

func TestAcquire_BlockedCounterNotIncremented(t *testing.T) {
	l, mr := newTestLimiter(t, Limits{PerMinute: 1, PerHour: 100})
	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	ctx := context.Background()

	_, err := l.Acquire(ctx, domain.ProviderMeta, "act_1")
	require.NoError(t, err)
	_, err = l.Acquire(ctx, domain.ProviderMeta, "act_1")
	require.Error(t, err)

	hourKey := "ratelimit:meta:act_1:hour:" + strconv.FormatInt(base.Unix()/3600, 10)
	v, err := mr.Get(hourKey)
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestAcquireJob_Concurrency(t *testing.T) {
	l, mr := newTestLimiter(t, Limits{ConcurrentJobs: 2})
	ctx := context.Background()

	p1, err := l.AcquireJob(ctx, domain.ProviderMeta)
	require.NoError(t, err)
	p2, err := l.AcquireJob(ctx, domain.ProviderMeta)
	require.NoError(t, err)

	_, err = l.AcquireJob(ctx, domain.ProviderMeta)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	p1.Release()
	p1.Release() // idempotente

	v, err := mr.Get("ratelimit:meta:jobs")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	p3, err := l.AcquireJob(ctx, domain.ProviderMeta)
	require.NoError(t, err)
	p2.Release()
	p3.Release()

	v, _ = mr.Get("ratelimit:meta:jobs")
	assert.Equal(t, "0", v)
	assert.True(t, mr.TTL("ratelimit:meta:jobs") > 0)
}

func TestAcquire_UnlimitedProvider(t *testing.T) {
	l, _ := newTestLimiter(t, Limits{})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := l.Acquire(ctx, domain.ProviderGoogle, "123")
		require.NoError(t, err)
	}
}
