package model

import "math/big"

// TokenRecord is one token as served to the UI. Identity is
// (ChainID, lowercased Address). Price-ish fields stay string-encoded
// decimals exactly as the upstream reports them; RawMarketCap is the
// numeric form used only for sort ordering and is never rendered.
type TokenRecord struct {
	ChainID      int64   `json:"chainId"`
	Address      string  `json:"address"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	Decimals     int     `json:"decimals"`
	LogoURI      string  `json:"logoURI"`
	Price        string  `json:"price"`
	Change24H    string  `json:"change24h"`
	Volume24H    string  `json:"volume24h"`
	Liquidity    string  `json:"liquidity"`
	MarketCap    string  `json:"marketCap"`
	IsNative     bool    `json:"isNative"`
	RawMarketCap float64 `json:"-"`
}

// Candle is one OHLCV bucket. Timestamp is unix seconds; series are kept
// sorted ascending with unique timestamps.
type Candle struct {
	Timestamp int64   `json:"time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	VolumeUSD float64 `json:"volUsd"`
}

// TradeIntent is the immutable input to quote resolution. Amount is in the
// input token's smallest unit.
type TradeIntent struct {
	ChainID     int64
	TokenIn     string
	TokenOut    string
	Amount      *big.Int
	SlippagePct string
}

// Quote is the outcome of one resolution. Computed on demand, never cached.
type Quote struct {
	DstAmount   string `json:"dstAmount"`
	Dex         string `json:"dex"`
	PriceImpact string `json:"priceImpact"`
	// FeeTier is set only when the on-chain path produced the quote.
	FeeTier uint32 `json:"feeTier,omitempty"`
	// UnitPrice is the upstream's per-unit price when it reports one.
	UnitPrice string `json:"unitPrice,omitempty"`
}

// SwapTransaction is the aggregator-built unsigned transaction payload.
// Signing and submission happen in the wallet, outside this service.
type SwapTransaction struct {
	From             string `json:"from"`
	To               string `json:"to"`
	Data             string `json:"data"`
	Value            string `json:"value"`
	Gas              string `json:"gas"`
	GasPrice         string `json:"gasPrice"`
	MinReceiveAmount string `json:"minReceiveAmount,omitempty"`
}

// Trade is one recent market trade for a token.
type Trade struct {
	ID         string  `json:"id"`
	Time       int64   `json:"time"`
	Type       string  `json:"type"`
	Price      float64 `json:"price"`
	Amount     float64 `json:"amount"`
	Volume     float64 `json:"volume"`
	TxHash     string  `json:"txHash"`
	User       string  `json:"userAddress"`
	BaseSymbol string  `json:"baseSymbol"`
}
