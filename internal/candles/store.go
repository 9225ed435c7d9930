package candles

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dexgate-labs/dexgate/internal/chains"
	"github.com/dexgate-labs/dexgate/internal/model"
)

// CandleSource is the slice of the aggregator client this store needs.
// after is a unix-millisecond cursor; zero means "most recent".
type CandleSource interface {
	Candles(ctx context.Context, chainID int64, tokenAddress, bar string, limit int, after int64) ([]model.Candle, error)
}

// Store assembles per-(chain, token, timeframe) candle series: an initial
// load replaces the series, backward extensions merge older pages into it.
// Series are always sorted ascending with unique timestamps, and every
// mutation is whole-series replacement so concurrent readers see either
// the old or the new complete series.
type Store struct {
	source CandleSource
	limit  int

	mu     sync.RWMutex
	series map[string][]model.Candle
}

func NewStore(source CandleSource, limit int) *Store {
	if limit <= 0 {
		limit = 100
	}
	return &Store{
		source: source,
		limit:  limit,
		series: make(map[string][]model.Candle),
	}
}

// LoadInitial fetches the most recent page for the key and replaces any
// prior series. On upstream failure the previous series, if any, is
// returned unchanged; otherwise the result is empty.
func (s *Store) LoadInitial(ctx context.Context, chain chains.Chain, tokenAddress, bar string) []model.Candle {
	address := chains.ToWrapped(chain, tokenAddress)
	key := seriesKey(chain.ID, address, bar)

	fetched, err := s.source.Candles(ctx, chain.ID, address, bar, s.limit, 0)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("initial candle load failed")
		return s.snapshot(key)
	}

	merged := sortAndDedup(fetched)
	s.mu.Lock()
	s.series[key] = merged
	s.mu.Unlock()
	return merged
}

// ExtendBackward fetches up to one page of candles strictly older than
// oldestKnown (unix seconds) and merges it into the existing series.
// Extension is best-effort and idempotent: errors and empty pages leave
// the series untouched, and repeating a cursor cannot introduce duplicates
// or break ordering.
func (s *Store) ExtendBackward(ctx context.Context, chain chains.Chain, tokenAddress, bar string, oldestKnown int64) []model.Candle {
	address := chains.ToWrapped(chain, tokenAddress)
	key := seriesKey(chain.ID, address, bar)

	fetched, err := s.source.Candles(ctx, chain.ID, address, bar, s.limit, oldestKnown*1000)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("backward candle extension failed")
		return s.snapshot(key)
	}

	// The upstream cursor should already bound the page, but drift has been
	// observed; enforce strictly-older locally.
	older := fetched[:0]
	for _, c := range fetched {
		if c.Timestamp < oldestKnown {
			older = append(older, c)
		}
	}
	if len(older) == 0 {
		return s.snapshot(key)
	}

	s.mu.Lock()
	merged := mergeSeries(s.series[key], older)
	s.series[key] = merged
	s.mu.Unlock()
	return merged
}

// Series returns the current series for a key without touching upstream.
func (s *Store) Series(chain chains.Chain, tokenAddress, bar string) []model.Candle {
	address := chains.ToWrapped(chain, tokenAddress)
	return s.snapshot(seriesKey(chain.ID, address, bar))
}

func (s *Store) snapshot(key string) []model.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if existing, ok := s.series[key]; ok {
		return existing
	}
	return []model.Candle{}
}

// mergeSeries combines an existing series with newly fetched candles,
// deduplicating by timestamp (existing candles win) and re-sorting
// ascending.
func mergeSeries(existing, fetched []model.Candle) []model.Candle {
	byTimestamp := make(map[int64]model.Candle, len(existing)+len(fetched))
	for _, c := range fetched {
		byTimestamp[c.Timestamp] = c
	}
	for _, c := range existing {
		byTimestamp[c.Timestamp] = c
	}
	merged := make([]model.Candle, 0, len(byTimestamp))
	for _, c := range byTimestamp {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}

func sortAndDedup(candles []model.Candle) []model.Candle {
	return mergeSeries(nil, candles)
}

func seriesKey(chainID int64, address, bar string) string {
	return fmt.Sprintf("%d:%s:%s", chainID, strings.ToLower(address), bar)
}
