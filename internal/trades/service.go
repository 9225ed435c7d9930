package trades

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dexgate-labs/dexgate/internal/chains"
	"github.com/dexgate-labs/dexgate/internal/model"
)

// TradeSource is the slice of the aggregator client this service needs.
type TradeSource interface {
	Trades(ctx context.Context, chainID int64, tokenAddress string, limit int) ([]model.Trade, error)
}

// Service serves the recent-trades feed. Purely pass-through: no cache,
// best-effort, any upstream failure degrades to an empty list.
type Service struct {
	source TradeSource
	limit  int
}

func NewService(source TradeSource, limit int) *Service {
	if limit <= 0 {
		limit = 50
	}
	return &Service{source: source, limit: limit}
}

// Recent returns the latest trades for a token, translating a native
// selection to the chain's wrapped token first.
func (s *Service) Recent(ctx context.Context, chain chains.Chain, tokenAddress string) []model.Trade {
	address := chains.ToWrapped(chain, tokenAddress)
	trades, err := s.source.Trades(ctx, chain.ID, address, s.limit)
	if err != nil {
		log.Debug().Err(err).Int64("chain", chain.ID).Str("token", address).Msg("recent trades fetch failed")
		return []model.Trade{}
	}
	if trades == nil {
		return []model.Trade{}
	}
	return trades
}
