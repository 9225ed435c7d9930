package quote

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/dexgate-labs/dexgate/internal/chains"
	apperr "github.com/dexgate-labs/dexgate/internal/errors"
	"github.com/dexgate-labs/dexgate/internal/metrics"
	"github.com/dexgate-labs/dexgate/internal/model"
)

// AggregatorQuoter is the slice of the aggregator client the resolver
// needs for its primary path.
type AggregatorQuoter interface {
	Quote(ctx context.Context, intent model.TradeIntent) (model.Quote, error)
}

// Resolver turns a trade intent into an executable quote. The aggregator
// is the primary path; when it has no route for the pair, rejects the
// request or is not configured at all, the resolver probes the chain's
// quoting contract directly and returns the best tier it finds. Quotes
// are never cached and never silently substituted with stale data: this
// is the one component that surfaces typed failures to its caller.
type Resolver struct {
	aggregator   AggregatorQuoter
	prober       *Prober
	rpcOverrides map[int64]string
}

// NewResolver builds a resolver. aggregator may be nil when no off-chain
// aggregator access is configured.
func NewResolver(aggregator AggregatorQuoter, prober *Prober, rpcOverrides map[int64]string) *Resolver {
	return &Resolver{aggregator: aggregator, prober: prober, rpcOverrides: rpcOverrides}
}

// Resolve returns a quote or a typed failure (CodeNoLiquidity when every
// route failed, CodeUnavailable when no upstream could be reached).
func (r *Resolver) Resolve(ctx context.Context, chain chains.Chain, intent model.TradeIntent) (model.Quote, error) {
	if intent.Amount == nil || intent.Amount.Sign() <= 0 {
		return model.Quote{}, apperr.New(apperr.CodeUsage, "amount must be a positive integer in smallest units")
	}

	var aggErr error
	if r.aggregator != nil {
		quote, err := r.aggregator.Quote(ctx, intent)
		if err == nil {
			metrics.QuoteRequests.WithLabelValues("aggregator", "ok").Inc()
			return quote, nil
		}
		if ctx.Err() != nil {
			return model.Quote{}, apperr.Wrap(apperr.CodeUnavailable, "quote cancelled", ctx.Err())
		}
		aggErr = err
		metrics.QuoteRequests.WithLabelValues("aggregator", "failed").Inc()
		log.Debug().Err(err).Int64("chain", chain.ID).Msg("aggregator quote failed, probing on-chain")
	}

	quote, err := r.resolveOnChain(ctx, chain, intent)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("onchain", "failed").Inc()
		// Prefer the sharper classification: when the aggregator had no
		// route and the chain shows no pool either, that is NoLiquidity
		// even if the probe itself could not run.
		if apperr.CodeOf(err) == apperr.CodeUnavailable && aggErr != nil && apperr.CodeOf(aggErr) == apperr.CodeRejected {
			return model.Quote{}, apperr.Wrap(apperr.CodeNoLiquidity, "no aggregator route and on-chain probe unavailable", err)
		}
		return model.Quote{}, err
	}
	metrics.QuoteRequests.WithLabelValues("onchain", "ok").Inc()
	return quote, nil
}

func (r *Resolver) resolveOnChain(ctx context.Context, chain chains.Chain, intent model.TradeIntent) (model.Quote, error) {
	// The quoter contract has no native-coin concept; probe the wrapped
	// equivalent instead.
	tokenIn := common.HexToAddress(chains.ToWrapped(chain, intent.TokenIn))
	tokenOut := common.HexToAddress(chains.ToWrapped(chain, intent.TokenOut))

	bestOut, tier, err := r.prober.BestQuote(ctx, chain, r.rpcOverrides[chain.ID], tokenIn, tokenOut, intent.Amount)
	if err != nil {
		return model.Quote{}, err
	}
	return model.Quote{
		DstAmount:   bestOut.String(),
		Dex:         "uniswap-v3",
		PriceImpact: "0",
		FeeTier:     tier,
	}, nil
}
