package clredis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCounters(t *testing.T) (*Counters, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestRecordAndDay(t *testing.T) {
	counters, mr := newTestCounters(t)
	ctx := context.Background()
	day := "2024-03-09"

	require.NoError(t, counters.Record(ctx, day, "1.2.3.4", true, false))
	require.NoError(t, counters.Record(ctx, day, "1.2.3.4", false, true))
	require.NoError(t, counters.Record(ctx, day, "5.6.7.8", false, false))

	daily, err := counters.Day(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, Daily{Date: day, Views: 3, EmailsDetected: 1, Bots: 1, UniqueIPs: 2}, daily)

	assert.True(t, mr.TTL(dailyKey(day)) > 0)
	assert.True(t, mr.TTL(visitorsKey(day)) > 0)
}

func TestDayEmpty(t *testing.T) {
	counters, _ := newTestCounters(t)

	daily, err := counters.Day(context.Background(), "2000-01-01")
	require.NoError(t, err)
	assert.Equal(t, Daily{Date: "2000-01-01"}, daily)
}

func TestRecordUnavailable(t *testing.T) {
	counters, mr := newTestCounters(t)
	mr.Close()

	err := counters.Record(context.Background(), "2024-03-09", "1.2.3.4", false, false)
	assert.Error(t, err)
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, int64(0), parseCount(""))
	assert.Equal(t, int64(12), parseCount("12"))
	assert.Equal(t, int64(0), parseCount("abc"))
}
