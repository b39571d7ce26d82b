package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniverseResolver_CachesWithinTTL(t *testing.T) {
	futures := &fakeFutures{symbols: []exchange.Symbol{btcUsdt}}
	r := NewUniverseResolver(futures, "USDT", time.Hour)

	symbols, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []exchange.Symbol{btcUsdt}, symbols)

	// TTL 内不再访问交易所, 上游挂了也无感
	futures.listErr = errors.New("503")
	symbols, err = r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []exchange.Symbol{btcUsdt}, symbols)
}

func TestUniverseResolver_KeepsCacheOnRefreshFailure(t *testing.T) {
	futures := &fakeFutures{symbols: []exchange.Symbol{btcUsdt}}
	r := NewUniverseResolver(futures, "USDT", time.Nanosecond)

	_, err := r.Resolve(context.Background())
	require.NoError(t, err)

	futures.listErr = errors.New("503")
	time.Sleep(time.Millisecond)
	symbols, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []exchange.Symbol{btcUsdt}, symbols)
}

func TestUniverseResolver_ErrorWithoutCache(t *testing.T) {
	futures := &fakeFutures{listErr: errors.New("503")}
	r := NewUniverseResolver(futures, "USDT", time.Hour)

	_, err := r.Resolve(context.Background())
	assert.Error(t, err)
}
