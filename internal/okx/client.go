package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperr "github.com/dexgate-labs/dexgate/internal/errors"
	"github.com/dexgate-labs/dexgate/internal/httpx"
	"github.com/dexgate-labs/dexgate/internal/model"
)

// DecimalsUnknown marks a listing whose upstream record omitted the
// decimals field; callers resolve it through the decimals index.
const DecimalsUnknown = -1

const (
	allTokensPath = "/api/v5/dex/aggregator/all-tokens"
	searchPath    = "/api/v5/dex/market/token/search"
	candlesPath   = "/api/v5/dex/market/candles"
	quotePath     = "/api/v5/dex/aggregator/quote"
	swapPath      = "/api/v6/dex/aggregator/swap"
	tradesPath    = "/api/v6/dex/market/trades"
)

// Client talks to the OKX DEX API. Every request is signed by the injected
// Signer; the client itself never sees credentials.
type Client struct {
	http     *httpx.Client
	baseURL  string
	swapBase string
	signer   Signer
}

func New(httpClient *httpx.Client, baseURL, swapBaseURL string, signer Signer) *Client {
	return &Client{http: httpClient, baseURL: baseURL, swapBase: swapBaseURL, signer: signer}
}

// envelope is the uniform OKX response wrapper. A non-zero code is a
// definitive refusal ("no data"), not a transport failure.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, base, path string, vals url.Values, out any) error {
	query := "?" + vals.Encode()
	headers := c.signer.Headers("GET", path, query)
	var env envelope
	if _, err := c.http.GetJSON(ctx, base+path+query, headers, &env); err != nil {
		return err
	}
	if env.Code != "0" {
		msg := env.Msg
		if msg == "" {
			msg = "upstream error code " + env.Code
		}
		return apperr.New(apperr.CodeRejected, "okx: "+msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Wrap(apperr.CodeUnavailable, "decode okx payload", err)
	}
	return nil
}

// TokenListing is one upstream token record with field drift already
// collapsed. Decimals is DecimalsUnknown when the record omitted it.
type TokenListing struct {
	Address   string
	Name      string
	Symbol    string
	Decimals  int
	LogoURI   string
	Price     string
	Change24H string
	Volume24H string
	Liquidity string
	MarketCap string
}

// rawToken mirrors every field name the OKX API has used for token
// listings. Precedence between the variants is fixed in toListing.
type rawToken struct {
	TokenContractAddress string `json:"tokenContractAddress"`
	TokenName            string `json:"tokenName"`
	TokenSymbol          string `json:"tokenSymbol"`
	Decimals             string `json:"decimals"`
	TokenLogoURL         string `json:"tokenLogoUrl"`
	LogoURL              string `json:"logoUrl"`
	Price                string `json:"price"`
	UnitPrice            string `json:"unitPrice"`
	Change24H            string `json:"change24H"`
	Change               string `json:"change"`
	Volume24H            string `json:"volume24H"`
	Vol24H               string `json:"vol24h"`
	VolCcy24H            string `json:"volCcy24h"`
	Volume               string `json:"volume"`
	Liquidity            string `json:"liquidity"`
	MarketCap            string `json:"marketCap"`
}

func (t rawToken) toListing() TokenListing {
	decimals := DecimalsUnknown
	if t.Decimals != "" {
		if parsed, err := strconv.Atoi(t.Decimals); err == nil {
			decimals = parsed
		}
	}
	return TokenListing{
		Address:  strings.ToLower(t.TokenContractAddress),
		Name:     t.TokenName,
		Symbol:   t.TokenSymbol,
		Decimals: decimals,
		// Field precedence below follows the order the API introduced the
		// variants; newest name first.
		LogoURI:   firstNonEmpty(t.TokenLogoURL, t.LogoURL),
		Price:     firstNonEmpty(t.Price, t.UnitPrice),
		Change24H: firstNonEmpty(t.Change24H, t.Change),
		Volume24H: firstNonEmpty(t.Volume24H, t.Vol24H, t.VolCcy24H, t.Volume),
		Liquidity: t.Liquidity,
		MarketCap: t.MarketCap,
	}
}

// AllTokens pulls the full token listing for one chain.
func (c *Client) AllTokens(ctx context.Context, chainID int64) ([]TokenListing, error) {
	vals := url.Values{}
	vals.Set("chainIndex", strconv.FormatInt(chainID, 10))

	var raw []rawToken
	if err := c.get(ctx, c.baseURL, allTokensPath, vals, &raw); err != nil {
		return nil, err
	}
	return toListings(raw), nil
}

// SearchTokens runs a live token search. Results arrive in upstream
// relevance order and must not be re-sorted.
func (c *Client) SearchTokens(ctx context.Context, chainID int64, query string) ([]TokenListing, error) {
	vals := url.Values{}
	vals.Set("chains", strconv.FormatInt(chainID, 10))
	vals.Set("search", strings.ToLower(query))

	var raw []rawToken
	if err := c.get(ctx, c.baseURL, searchPath, vals, &raw); err != nil {
		return nil, err
	}
	return toListings(raw), nil
}

func toListings(raw []rawToken) []TokenListing {
	listings := make([]TokenListing, 0, len(raw))
	for _, t := range raw {
		if t.TokenContractAddress == "" {
			continue
		}
		listings = append(listings, t.toListing())
	}
	return listings
}

// Candles fetches up to limit OHLCV rows for a token. A non-zero after
// timestamp (unix ms) pages strictly older rows. Rows come back in
// upstream order; callers sort.
func (c *Client) Candles(ctx context.Context, chainID int64, tokenAddress, bar string, limit int, after int64) ([]model.Candle, error) {
	vals := url.Values{}
	vals.Set("chainIndex", strconv.FormatInt(chainID, 10))
	vals.Set("tokenContractAddress", strings.ToLower(tokenAddress))
	vals.Set("bar", bar)
	vals.Set("limit", strconv.Itoa(limit))
	if after > 0 {
		vals.Set("after", strconv.FormatInt(after, 10))
	}

	var rows [][]string
	if err := c.get(ctx, c.baseURL, candlesPath, vals, &rows); err != nil {
		return nil, err
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		// [ts, open, high, low, close, vol, volUsd]; volUsd is absent on
		// older API versions.
		if len(row) < 5 {
			continue
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		candle := model.Candle{
			Timestamp: ts / 1000,
			Open:      parseFloat(row[1]),
			High:      parseFloat(row[2]),
			Low:       parseFloat(row[3]),
			Close:     parseFloat(row[4]),
		}
		if len(row) > 6 {
			candle.VolumeUSD = parseFloat(row[6])
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// rawQuote mirrors the aggregator quote payload across API versions.
type rawQuote struct {
	ToTokenAmount         string `json:"toTokenAmount"`
	ReceiveAmount         string `json:"receiveAmount"`
	PriceImpact           string `json:"priceImpact"`
	PriceImpactPercentage string `json:"priceImpactPercentage"`
	TradeFee              string `json:"tradeFee"`
	UnitPrice             string `json:"unitPrice"`
	RouterResult          struct {
		DexName string `json:"dexName"`
		Router  string `json:"router"`
	} `json:"routerResult"`
	DexRouterList []struct {
		Router string `json:"router"`
	} `json:"dexRouterList"`
}

// Quote asks the aggregator for an executable price. A Rejected error
// means "no route for this pair", which callers treat as a fallback
// trigger rather than a failure.
func (c *Client) Quote(ctx context.Context, intent model.TradeIntent) (model.Quote, error) {
	vals := url.Values{}
	vals.Set("chainId", strconv.FormatInt(intent.ChainID, 10))
	vals.Set("amount", intent.Amount.String())
	vals.Set("fromTokenAddress", intent.TokenIn)
	vals.Set("toTokenAddress", intent.TokenOut)

	var data []rawQuote
	if err := c.get(ctx, c.baseURL, quotePath, vals, &data); err != nil {
		return model.Quote{}, err
	}
	if len(data) == 0 {
		return model.Quote{}, apperr.New(apperr.CodeRejected, "okx: empty quote payload")
	}
	raw := data[0]

	dstAmount := firstNonEmpty(raw.ToTokenAmount, raw.ReceiveAmount)
	if dstAmount == "" {
		return model.Quote{}, apperr.New(apperr.CodeRejected, "okx: quote missing destination amount")
	}

	dex := firstNonEmpty(raw.RouterResult.DexName, raw.RouterResult.Router)
	if dex == "" && len(raw.DexRouterList) > 0 {
		dex = raw.DexRouterList[0].Router
	}
	if dex == "" {
		dex = "okx-aggregator"
	}

	return model.Quote{
		DstAmount:   dstAmount,
		Dex:         dex,
		PriceImpact: firstNonEmpty(raw.PriceImpact, raw.PriceImpactPercentage, "0"),
		UnitPrice:   raw.UnitPrice,
	}, nil
}

type rawSwap struct {
	Tx struct {
		From             string `json:"from"`
		To               string `json:"to"`
		Data             string `json:"data"`
		Value            string `json:"value"`
		Gas              string `json:"gas"`
		GasPrice         string `json:"gasPrice"`
		MinReceiveAmount string `json:"minReceiveAmount"`
	} `json:"tx"`
}

// SwapData builds the unsigned swap transaction for a wallet to sign.
func (c *Client) SwapData(ctx context.Context, intent model.TradeIntent, wallet string) (model.SwapTransaction, error) {
	slippage := intent.SlippagePct
	if slippage == "" {
		slippage = "0.5"
	}
	vals := url.Values{}
	vals.Set("chainIndex", strconv.FormatInt(intent.ChainID, 10))
	vals.Set("amount", intent.Amount.String())
	vals.Set("fromTokenAddress", intent.TokenIn)
	vals.Set("toTokenAddress", intent.TokenOut)
	vals.Set("userWalletAddress", wallet)
	vals.Set("slippagePercent", slippage)

	var data []rawSwap
	if err := c.get(ctx, c.swapBase, swapPath, vals, &data); err != nil {
		return model.SwapTransaction{}, err
	}
	if len(data) == 0 || data[0].Tx.To == "" {
		return model.SwapTransaction{}, apperr.New(apperr.CodeRejected, "okx: no transaction data received")
	}
	tx := data[0].Tx
	return model.SwapTransaction{
		From:             tx.From,
		To:               tx.To,
		Data:             tx.Data,
		Value:            tx.Value,
		Gas:              tx.Gas,
		GasPrice:         tx.GasPrice,
		MinReceiveAmount: tx.MinReceiveAmount,
	}, nil
}

type rawTrade struct {
	ID               string `json:"id"`
	Time             string `json:"time"`
	Type             string `json:"type"`
	Price            string `json:"price"`
	Volume           string `json:"volume"`
	TxHashURL        string `json:"txHashUrl"`
	UserAddress      string `json:"userAddress"`
	ChangedTokenInfo []struct {
		TokenContractAddress string `json:"tokenContractAddress"`
		Amount               string `json:"amount"`
		TokenSymbol          string `json:"tokenSymbol"`
	} `json:"changedTokenInfo"`
}

// Trades fetches recent trades for a token. The per-trade amount and
// symbol come from the changed-token list entry matching tokenAddress;
// when that entry is missing the first entry's symbol is used so the UI
// can still label the row.
func (c *Client) Trades(ctx context.Context, chainID int64, tokenAddress string, limit int) ([]model.Trade, error) {
	target := strings.ToLower(tokenAddress)
	vals := url.Values{}
	vals.Set("chainIndex", strconv.FormatInt(chainID, 10))
	vals.Set("tokenContractAddress", target)
	vals.Set("limit", strconv.Itoa(limit))

	var raw []rawTrade
	if err := c.get(ctx, c.swapBase, tradesPath, vals, &raw); err != nil {
		return nil, err
	}

	trades := make([]model.Trade, 0, len(raw))
	for i, t := range raw {
		trade := model.Trade{
			ID:         t.ID,
			Type:       "sell",
			Price:      parseFloat(t.Price),
			Volume:     parseFloat(t.Volume),
			User:       t.UserAddress,
			BaseSymbol: "Token",
		}
		if trade.ID == "" {
			trade.ID = fmt.Sprintf("trade-%d", i)
		}
		if t.Type == "buy" {
			trade.Type = "buy"
		}
		if ts, err := strconv.ParseInt(t.Time, 10, 64); err == nil {
			trade.Time = ts
		}
		if t.TxHashURL != "" {
			parts := strings.Split(t.TxHashURL, "/")
			trade.TxHash = parts[len(parts)-1]
		}
		for _, info := range t.ChangedTokenInfo {
			if strings.ToLower(info.TokenContractAddress) == target {
				trade.Amount = parseFloat(info.Amount)
				if info.TokenSymbol != "" {
					trade.BaseSymbol = info.TokenSymbol
				}
				break
			}
		}
		if trade.Amount == 0 && len(t.ChangedTokenInfo) > 0 && trade.BaseSymbol == "Token" {
			trade.BaseSymbol = t.ChangedTokenInfo[0].TokenSymbol
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
