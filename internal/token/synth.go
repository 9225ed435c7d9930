package token

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dexgate-labs/dexgate/internal/chains"
	"github.com/dexgate-labs/dexgate/internal/model"
	"github.com/dexgate-labs/dexgate/internal/okx"
)

// DeriveNative derives the synthetic "chain-native coin" record from rec.
// It returns nil unless rec is the chain's canonical wrapped token. The
// synthetic twin carries the native sentinel address and the chain's own
// name and symbol while sharing the wrapped record's market numbers.
func DeriveNative(rec model.TokenRecord, chain chains.Chain) *model.TokenRecord {
	if !chains.IsWrapped(chain, rec.Address) {
		return nil
	}
	native := rec
	native.Address = chains.NativeAddress
	native.Name = chain.Name
	native.Symbol = chain.NativeSymbol
	native.Decimals = chains.NativeDecimals
	native.IsNative = true
	return &native
}

// buildRecords runs the synthesis pipeline over raw listings: decimal
// resolution, native derivation, dedup by lowercased address (first
// occurrence wins) and, outside search mode, the ranked sort. Search
// responses keep upstream relevance order.
func buildRecords(chain chains.Chain, listings []okx.TokenListing, decimalsIndex map[string]int, searchMode, replaceWrapped bool) []model.TokenRecord {
	records := make([]model.TokenRecord, 0, len(listings)+1)
	for _, listing := range listings {
		rec := model.TokenRecord{
			ChainID:      chain.ID,
			Address:      strings.ToLower(listing.Address),
			Name:         listing.Name,
			Symbol:       listing.Symbol,
			Decimals:     resolveDecimals(listing, decimalsIndex),
			LogoURI:      listing.LogoURI,
			Price:        defaultString(listing.Price, "0"),
			Change24H:    defaultString(listing.Change24H, "0"),
			Volume24H:    defaultString(listing.Volume24H, "0"),
			Liquidity:    defaultString(listing.Liquidity, "0"),
			MarketCap:    defaultString(listing.MarketCap, "0"),
			RawMarketCap: parseFloat(listing.MarketCap),
		}
		if native := DeriveNative(rec, chain); native != nil {
			if replaceWrapped {
				records = append(records, *native)
				continue
			}
			records = append(records, rec, *native)
			continue
		}
		records = append(records, rec)
	}

	records = dedupByAddress(records)
	if !searchMode {
		sortRanked(records)
	}
	return records
}

// resolveDecimals applies the fixed precedence: explicit per-record field,
// then the decimals index, then the 18 default.
func resolveDecimals(listing okx.TokenListing, decimalsIndex map[string]int) int {
	if listing.Decimals != okx.DecimalsUnknown {
		return listing.Decimals
	}
	if d, ok := decimalsIndex[strings.ToLower(listing.Address)]; ok {
		return d
	}
	return chains.NativeDecimals
}

func dedupByAddress(records []model.TokenRecord) []model.TokenRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, rec := range records {
		key := strings.ToLower(rec.Address)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// sortRanked orders native records first and everything else by market
// capitalization descending.
func sortRanked(records []model.TokenRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].IsNative != records[j].IsNative {
			return records[i].IsNative
		}
		return records[i].RawMarketCap > records[j].RawMarketCap
	})
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
