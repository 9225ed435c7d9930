package quote

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dexgate-labs/dexgate/internal/chains"
	apperr "github.com/dexgate-labs/dexgate/internal/errors"
)

// Candidate fee tiers in hundredths of a bip (0.01%, 0.05%, 0.3%, 1%).
// Probed in order; a pool may exist at any subset of them.
var feeTiers = []uint32{100, 500, 3000, 10000}

const quoterV2ABI = `[
	{"name":"quoteExactInputSingle","type":"function","stateMutability":"nonpayable","inputs":[{"name":"params","type":"tuple","components":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"fee","type":"uint24"},{"name":"sqrtPriceLimitX96","type":"uint160"}]}],"outputs":[{"name":"amountOut","type":"uint256"},{"name":"sqrtPriceX96After","type":"uint160"},{"name":"initializedTicksCrossed","type":"uint32"},{"name":"gasEstimate","type":"uint256"}]}
]`

var quoterABI = mustABI(quoterV2ABI)

type quoteExactInputSingleParams struct {
	TokenIn           common.Address `abi:"tokenIn"`
	TokenOut          common.Address `abi:"tokenOut"`
	AmountIn          *big.Int       `abi:"amountIn"`
	Fee               *big.Int       `abi:"fee"`
	SqrtPriceLimitX96 *big.Int       `abi:"sqrtPriceLimitX96"`
}

// DialFunc opens a read-only RPC connection. The returned func closes it.
type DialFunc func(ctx context.Context, rpcURL string) (ethereum.ContractCaller, func(), error)

func dialEthclient(ctx context.Context, rpcURL string) (ethereum.ContractCaller, func(), error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// Prober quotes a pair directly against the chain's Uniswap V3 QuoterV2
// contract via simulated calls, one per candidate fee tier. It carries no
// retry policy of its own: each probe fails or succeeds in one call.
type Prober struct {
	dial DialFunc
}

func NewProber() *Prober {
	return &Prober{dial: dialEthclient}
}

// BestQuote returns the maximum output amount across all fee tiers that
// have a pool for the pair, together with the tier that produced it.
// Tiers that revert (usually "no pool") are skipped; if every tier fails
// the pair has no on-chain liquidity.
func (p *Prober) BestQuote(ctx context.Context, chain chains.Chain, rpcURL string, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, uint32, error) {
	if chain.QuoterV2 == "" {
		return nil, 0, apperr.New(apperr.CodeUnavailable, "no quoter contract configured for chain")
	}
	if rpcURL == "" {
		rpcURL = chain.RPCURL
	}

	caller, closeFn, err := p.dial(ctx, rpcURL)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.CodeUnavailable, "connect rpc", err)
	}
	defer closeFn()

	quoter := common.HexToAddress(chain.QuoterV2)
	var (
		bestOut  *big.Int
		bestTier uint32
	)
	for _, fee := range feeTiers {
		callData, err := quoterABI.Pack("quoteExactInputSingle", quoteExactInputSingleParams{
			TokenIn:           tokenIn,
			TokenOut:          tokenOut,
			AmountIn:          amountIn,
			Fee:               big.NewInt(int64(fee)),
			SqrtPriceLimitX96: big.NewInt(0),
		})
		if err != nil {
			return nil, 0, apperr.Wrap(apperr.CodeInternal, "pack quoter calldata", err)
		}
		out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &quoter, Data: callData}, nil)
		if err != nil {
			continue
		}
		decoded, err := quoterABI.Unpack("quoteExactInputSingle", out)
		if err != nil || len(decoded) == 0 {
			continue
		}
		amountOut, ok := decoded[0].(*big.Int)
		if !ok || amountOut == nil || amountOut.Sign() <= 0 {
			continue
		}
		if bestOut == nil || amountOut.Cmp(bestOut) > 0 {
			bestOut = new(big.Int).Set(amountOut)
			bestTier = fee
		}
	}
	if bestOut == nil {
		return nil, 0, apperr.New(apperr.CodeNoLiquidity, "no pool quoted the pair at any fee tier")
	}
	return bestOut, bestTier, nil
}

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
