package server

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dexgate-labs/dexgate/internal/chains"
	apperr "github.com/dexgate-labs/dexgate/internal/errors"
	"github.com/dexgate-labs/dexgate/internal/model"
)

// SwapBuilder builds unsigned swap transactions via the aggregator. Nil
// when no aggregator credentials are configured.
type SwapBuilder interface {
	SwapData(ctx context.Context, intent model.TradeIntent, wallet string) (model.SwapTransaction, error)
}

// Supported chart timeframes mapped to upstream bar values.
var barByTimeframe = map[string]string{
	"1H": "1H",
	"4H": "4H",
	"1D": "1D",
	"1W": "1W",
}

func (s *Server) chainFromQuery(c *gin.Context) (chains.Chain, bool) {
	raw := c.DefaultQuery("chainId", "1")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, "invalid chainId")
		return chains.Chain{}, false
	}
	chain, ok := chains.ByID(id)
	if !ok {
		badRequest(c, "unsupported chain "+raw)
		return chains.Chain{}, false
	}
	return chain, true
}

// getTokens serves the ranked list, or live search results when q is set.
// Always 200: browsing degrades to stale or empty data, never an error.
func (s *Server) getTokens(c *gin.Context) {
	chain, okChain := s.chainFromQuery(c)
	if !okChain {
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	ok(c, s.tokens.GetTokens(c.Request.Context(), chain, query))
}

// getCandles serves price history. A `before` cursor (unix seconds)
// requests candles older than the caller's oldest visible point; without
// it the series is (re)loaded fresh.
func (s *Server) getCandles(c *gin.Context) {
	chain, okChain := s.chainFromQuery(c)
	if !okChain {
		return
	}
	tokenAddress := strings.TrimSpace(c.Query("tokenAddress"))
	if tokenAddress == "" {
		badRequest(c, "tokenAddress is required")
		return
	}
	timeframe := c.DefaultQuery("timeframe", "1D")
	bar, known := barByTimeframe[strings.ToUpper(timeframe)]
	if !known {
		bar = "1D"
	}

	if rawBefore := c.Query("before"); rawBefore != "" {
		before, err := strconv.ParseInt(rawBefore, 10, 64)
		if err != nil || before <= 0 {
			badRequest(c, "invalid before cursor")
			return
		}
		ok(c, s.candles.ExtendBackward(c.Request.Context(), chain, tokenAddress, bar, before))
		return
	}
	ok(c, s.candles.LoadInitial(c.Request.Context(), chain, tokenAddress, bar))
}

func (s *Server) tradeIntentFromQuery(c *gin.Context, chain chains.Chain) (model.TradeIntent, bool) {
	tokenIn := strings.TrimSpace(c.Query("tokenIn"))
	tokenOut := strings.TrimSpace(c.Query("tokenOut"))
	rawAmount := strings.TrimSpace(c.Query("amount"))
	if tokenIn == "" || tokenOut == "" || rawAmount == "" {
		badRequest(c, "tokenIn, tokenOut and amount are required")
		return model.TradeIntent{}, false
	}
	amount, okAmount := new(big.Int).SetString(rawAmount, 10)
	if !okAmount || amount.Sign() <= 0 {
		badRequest(c, "amount must be a positive integer in smallest units")
		return model.TradeIntent{}, false
	}
	return model.TradeIntent{
		ChainID:     chain.ID,
		TokenIn:     strings.ToLower(tokenIn),
		TokenOut:    strings.ToLower(tokenOut),
		Amount:      amount,
		SlippagePct: c.DefaultQuery("slippage", "0.5"),
	}, true
}

// getQuote resolves an executable price. This is the one endpoint that
// surfaces typed failures: the UI must show "cannot quote" rather than a
// fabricated amount.
func (s *Server) getQuote(c *gin.Context) {
	chain, okChain := s.chainFromQuery(c)
	if !okChain {
		return
	}
	intent, okIntent := s.tradeIntentFromQuery(c, chain)
	if !okIntent {
		return
	}
	quote, err := s.quotes.Resolve(c.Request.Context(), chain, intent)
	if err != nil {
		failTyped(c, err)
		return
	}
	ok(c, quote)
}

// getSwap builds the unsigned swap transaction for the caller's wallet.
func (s *Server) getSwap(c *gin.Context) {
	chain, okChain := s.chainFromQuery(c)
	if !okChain {
		return
	}
	intent, okIntent := s.tradeIntentFromQuery(c, chain)
	if !okIntent {
		return
	}
	wallet := strings.TrimSpace(c.Query("wallet"))
	if wallet == "" {
		badRequest(c, "wallet is required")
		return
	}
	if s.swapper == nil {
		failTyped(c, apperr.New(apperr.CodeUnavailable, "aggregator access not configured"))
		return
	}
	tx, err := s.swapper.SwapData(c.Request.Context(), intent, wallet)
	if err != nil {
		failTyped(c, err)
		return
	}
	ok(c, tx)
}

// getTrades serves the recent-trades feed; always 200, empty on failure.
func (s *Server) getTrades(c *gin.Context) {
	chain, okChain := s.chainFromQuery(c)
	if !okChain {
		return
	}
	tokenAddress := strings.TrimSpace(c.Query("tokenAddress"))
	if tokenAddress == "" {
		badRequest(c, "tokenAddress is required")
		return
	}
	ok(c, s.trades.Recent(c.Request.Context(), chain, tokenAddress))
}
