package quote

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dexgate-labs/dexgate/internal/chains"
	apperr "github.com/dexgate-labs/dexgate/internal/errors"
)

var probeChain = chains.Chain{
	ID:           1,
	Name:         "Ethereum",
	NativeSymbol: "ETH",
	WrappedToken: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
	RPCURL:       "http://rpc.invalid",
	QuoterV2:     "0x61fFE014bA17989E743c5F6cB21bF9697530B21e",
}

// tierCaller simulates a QuoterV2 contract: each configured tier returns
// its amount, every other tier reverts.
type tierCaller struct {
	amounts map[uint32]*big.Int
	calls   int
}

func (c *tierCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c.calls++
	fee := feeFromCalldata(msg.Data)
	amount, ok := c.amounts[fee]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return packQuoterOutput(amount)
}

// feeFromCalldata reads the fee word out of the packed
// quoteExactInputSingle params (4-byte selector, then five 32-byte words;
// fee is the fourth).
func feeFromCalldata(data []byte) uint32 {
	word := data[4+3*32 : 4+4*32]
	return uint32(new(big.Int).SetBytes(word).Uint64())
}

func packQuoterOutput(amountOut *big.Int) ([]byte, error) {
	method := quoterABI.Methods["quoteExactInputSingle"]
	return method.Outputs.Pack(amountOut, big.NewInt(0), uint32(1), big.NewInt(100000))
}

func fakeDial(caller ethereum.ContractCaller, err error) DialFunc {
	return func(ctx context.Context, rpcURL string) (ethereum.ContractCaller, func(), error) {
		if err != nil {
			return nil, nil, err
		}
		return caller, func() {}, nil
	}
}

func TestBestQuotePicksHighestTier(t *testing.T) {
	caller := &tierCaller{amounts: map[uint32]*big.Int{
		500:  big.NewInt(1000),
		3000: big.NewInt(1200),
	}}
	prober := &Prober{dial: fakeDial(caller, nil)}

	out, tier, err := prober.BestQuote(context.Background(), probeChain, "",
		common.HexToAddress("0x1"), common.HexToAddress("0x2"), big.NewInt(1e6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Int64() != 1200 {
		t.Fatalf("expected best output 1200, got %s", out)
	}
	if tier != 3000 {
		t.Fatalf("expected winning tier 3000, got %d", tier)
	}
	if caller.calls != len(feeTiers) {
		t.Fatalf("every tier should be probed, got %d calls", caller.calls)
	}
}

func TestBestQuoteAllTiersRevertIsNoLiquidity(t *testing.T) {
	caller := &tierCaller{amounts: map[uint32]*big.Int{}}
	prober := &Prober{dial: fakeDial(caller, nil)}

	_, _, err := prober.BestQuote(context.Background(), probeChain, "",
		common.HexToAddress("0x1"), common.HexToAddress("0x2"), big.NewInt(1e6))
	if apperr.CodeOf(err) != apperr.CodeNoLiquidity {
		t.Fatalf("expected CodeNoLiquidity, got %v", err)
	}
}

func TestBestQuoteDialFailureIsUnavailable(t *testing.T) {
	prober := &Prober{dial: fakeDial(nil, errors.New("connection refused"))}

	_, _, err := prober.BestQuote(context.Background(), probeChain, "",
		common.HexToAddress("0x1"), common.HexToAddress("0x2"), big.NewInt(1e6))
	if apperr.CodeOf(err) != apperr.CodeUnavailable {
		t.Fatalf("expected CodeUnavailable, got %v", err)
	}
}

func TestBestQuoteNoQuoterConfigured(t *testing.T) {
	chain := probeChain
	chain.QuoterV2 = ""
	prober := &Prober{dial: fakeDial(&tierCaller{}, nil)}

	_, _, err := prober.BestQuote(context.Background(), chain, "",
		common.HexToAddress("0x1"), common.HexToAddress("0x2"), big.NewInt(1e6))
	if apperr.CodeOf(err) != apperr.CodeUnavailable {
		t.Fatalf("expected CodeUnavailable, got %v", err)
	}
}

func TestBestQuoteIgnoresZeroOutputs(t *testing.T) {
	caller := &tierCaller{amounts: map[uint32]*big.Int{
		100: big.NewInt(0),
		500: big.NewInt(7),
	}}
	prober := &Prober{dial: fakeDial(caller, nil)}

	out, tier, err := prober.BestQuote(context.Background(), probeChain, "",
		common.HexToAddress("0x1"), common.HexToAddress("0x2"), big.NewInt(1e6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Int64() != 7 || tier != 500 {
		t.Fatalf("zero outputs must be skipped, got out=%s tier=%d", out, tier)
	}
}
