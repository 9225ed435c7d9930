package token

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/dexgate-labs/dexgate/internal/chains"
	"github.com/dexgate-labs/dexgate/internal/metrics"
	"github.com/dexgate-labs/dexgate/internal/model"
	"github.com/dexgate-labs/dexgate/internal/okx"
)

// ListingSource is the slice of the aggregator client this cache needs.
type ListingSource interface {
	AllTokens(ctx context.Context, chainID int64) ([]okx.TokenListing, error)
	SearchTokens(ctx context.Context, chainID int64, query string) ([]okx.TokenListing, error)
}

// Options tune cache freshness and response shaping.
type Options struct {
	RankedTTL   time.Duration
	DecimalsTTL time.Duration
	TopTokens   int
	// ReplaceWrapped drops the wrapped record from ranked output, keeping
	// only its synthetic native twin.
	ReplaceWrapped bool
	Now            func() time.Time
}

// Service is the process-wide token metadata cache: a short-lived ranked
// list per chain and a long-lived decimals index, both refreshed lazily by
// whichever request observes staleness. Refreshes are coalesced per chain
// so a concurrent burst does a single upstream pull. Entries are replaced
// whole; readers never observe a half-written entry.
type Service struct {
	source ListingSource
	opts   Options

	group singleflight.Group

	mu       sync.RWMutex
	ranked   map[int64]rankedEntry
	decimals map[int64]decimalsEntry
}

type rankedEntry struct {
	records    []model.TokenRecord
	capturedAt time.Time
}

type decimalsEntry struct {
	byAddress  map[string]int
	capturedAt time.Time
}

func NewService(source ListingSource, opts Options) *Service {
	if opts.RankedTTL <= 0 {
		opts.RankedTTL = 3 * time.Minute
	}
	if opts.DecimalsTTL <= 0 {
		opts.DecimalsTTL = time.Hour
	}
	if opts.TopTokens <= 0 {
		opts.TopTokens = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		source:   source,
		opts:     opts,
		ranked:   make(map[int64]rankedEntry),
		decimals: make(map[int64]decimalsEntry),
	}
}

// GetTokens returns the token list for a chain. A non-empty query bypasses
// the ranked cache and runs a live search; otherwise the ranked cache is
// consulted and refreshed when expired. Browsing never returns an error:
// on upstream failure the last known snapshot is served regardless of age,
// or an empty list when none exists.
func (s *Service) GetTokens(ctx context.Context, chain chains.Chain, query string) []model.TokenRecord {
	if strings.TrimSpace(query) != "" {
		return s.search(ctx, chain, query)
	}

	s.mu.RLock()
	entry, ok := s.ranked[chain.ID]
	s.mu.RUnlock()

	if ok && s.fresh(entry.capturedAt, s.opts.RankedTTL) {
		metrics.CacheHits.WithLabelValues("ranked").Inc()
		return entry.records
	}
	metrics.CacheMisses.WithLabelValues("ranked").Inc()

	if err := s.refresh(ctx, chain); err != nil {
		log.Warn().Err(err).Int64("chain", chain.ID).Msg("ranked list refresh failed")
		if ok {
			metrics.StaleServes.WithLabelValues("ranked").Inc()
			return entry.records
		}
		return []model.TokenRecord{}
	}

	s.mu.RLock()
	entry = s.ranked[chain.ID]
	s.mu.RUnlock()
	return entry.records
}

// GetDecimals resolves a token's decimal precision from the index,
// refreshing it at most once per concurrent burst when absent or expired.
// Unresolvable addresses default to 18.
func (s *Service) GetDecimals(ctx context.Context, chain chains.Chain, address string) int {
	key := strings.ToLower(address)
	if chains.IsNativeSentinel(key) {
		return chains.NativeDecimals
	}

	s.mu.RLock()
	entry, ok := s.decimals[chain.ID]
	s.mu.RUnlock()

	if ok && s.fresh(entry.capturedAt, s.opts.DecimalsTTL) {
		if d, found := entry.byAddress[key]; found {
			metrics.CacheHits.WithLabelValues("decimals").Inc()
			return d
		}
	}
	metrics.CacheMisses.WithLabelValues("decimals").Inc()

	if err := s.refresh(ctx, chain); err != nil {
		log.Warn().Err(err).Int64("chain", chain.ID).Msg("decimals index refresh failed")
	}

	s.mu.RLock()
	entry, ok = s.decimals[chain.ID]
	s.mu.RUnlock()
	if ok {
		if d, found := entry.byAddress[key]; found {
			return d
		}
	}
	return chains.NativeDecimals
}

func (s *Service) search(ctx context.Context, chain chains.Chain, query string) []model.TokenRecord {
	listings, err := s.source.SearchTokens(ctx, chain.ID, query)
	if err != nil {
		log.Warn().Err(err).Int64("chain", chain.ID).Str("query", query).Msg("token search failed")
		return []model.TokenRecord{}
	}
	return buildRecords(chain, listings, s.decimalsSnapshot(chain.ID), true, s.opts.ReplaceWrapped)
}

// refresh pulls the full token list and commits both the ranked entry and
// the decimals index. Coalesced per chain: concurrent observers of a stale
// entry await one underlying pull. Nothing is written unless the whole
// pipeline succeeds.
func (s *Service) refresh(ctx context.Context, chain chains.Chain) error {
	_, err, _ := s.group.Do(strconv.FormatInt(chain.ID, 10), func() (any, error) {
		listings, err := s.source.AllTokens(ctx, chain.ID)
		if err != nil {
			return nil, err
		}

		byAddress := make(map[string]int, len(listings))
		for _, listing := range listings {
			if listing.Decimals != okx.DecimalsUnknown {
				byAddress[strings.ToLower(listing.Address)] = listing.Decimals
			}
		}

		records := buildRecords(chain, listings, byAddress, false, s.opts.ReplaceWrapped)
		if len(records) > s.opts.TopTokens {
			records = records[:s.opts.TopTokens]
		}

		now := s.opts.Now()
		s.mu.Lock()
		s.ranked[chain.ID] = rankedEntry{records: records, capturedAt: now}
		s.decimals[chain.ID] = decimalsEntry{byAddress: byAddress, capturedAt: now}
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

func (s *Service) decimalsSnapshot(chainID int64) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.decimals[chainID]; ok {
		return entry.byAddress
	}
	return nil
}

func (s *Service) fresh(capturedAt time.Time, ttl time.Duration) bool {
	return s.opts.Now().Sub(capturedAt) < ttl
}
