package chains

import "strings"

// NativeAddress is the reserved sentinel representing a chain's native coin
// in token responses. It is never a deployed contract.
const NativeAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// NativeDecimals applies to every supported chain's native coin.
const NativeDecimals = 18

// Chain is one supported network. WrappedToken is the canonical ERC-20
// representation of the native coin; QuoterV2 is the Uniswap V3 quoting
// contract used by the on-chain fallback.
type Chain struct {
	ID           int64
	Name         string
	NativeSymbol string
	WrappedToken string
	RPCURL       string
	QuoterV2     string
}

// Canonical chain table. RPC endpoints can be overridden per chain through
// configuration; everything else is fixed per network.
var chainsByID = map[int64]Chain{
	1: {
		ID:           1,
		Name:         "Ethereum",
		NativeSymbol: "ETH",
		WrappedToken: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		RPCURL:       "https://eth.llamarpc.com",
		QuoterV2:     "0x61fFE014bA17989E743c5F6cB21bF9697530B21e",
	},
	56: {
		ID:           56,
		Name:         "BNB Chain",
		NativeSymbol: "BNB",
		WrappedToken: "0xbb4cdb9cbd36b01bd1cbaef60af814a3f6f0ee75",
		RPCURL:       "https://bsc-dataseed.binance.org",
		QuoterV2:     "0x78D78E420Da98ad378D7799bE8f4AF69033EB077",
	},
	137: {
		ID:           137,
		Name:         "Polygon",
		NativeSymbol: "POL",
		WrappedToken: "0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270",
		RPCURL:       "https://polygon-rpc.com",
		QuoterV2:     "0x61fFE014bA17989E743c5F6cB21bF9697530B21e",
	},
	8453: {
		ID:           8453,
		Name:         "Base",
		NativeSymbol: "ETH",
		WrappedToken: "0x4200000000000000000000000000000000000006",
		RPCURL:       "https://mainnet.base.org",
		QuoterV2:     "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a",
	},
	42161: {
		ID:           42161,
		Name:         "Arbitrum",
		NativeSymbol: "ETH",
		WrappedToken: "0x82af49447d8a07e3bd95bd0d56f35241523fbab1",
		RPCURL:       "https://arb1.arbitrum.io/rpc",
		QuoterV2:     "0x61fFE014bA17989E743c5F6cB21bF9697530B21e",
	},
}

func ByID(id int64) (Chain, bool) {
	c, ok := chainsByID[id]
	return c, ok
}

// IDs returns every supported chain id (unordered).
func IDs() []int64 {
	ids := make([]int64, 0, len(chainsByID))
	for id := range chainsByID {
		ids = append(ids, id)
	}
	return ids
}

// IsNativeSentinel reports whether address is the native coin sentinel.
func IsNativeSentinel(address string) bool {
	return strings.EqualFold(address, NativeAddress)
}

// ToWrapped translates the native sentinel to the chain's wrapped token so
// that upstreams without a native-token concept can be queried. Any other
// address passes through lowercased.
func ToWrapped(c Chain, address string) string {
	if IsNativeSentinel(address) {
		return c.WrappedToken
	}
	return strings.ToLower(address)
}

// IsWrapped reports whether address is the chain's canonical wrapped token.
func IsWrapped(c Chain, address string) bool {
	return strings.EqualFold(address, c.WrappedToken)
}
