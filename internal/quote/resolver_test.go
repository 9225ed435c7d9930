package quote

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"

	"github.com/dexgate-labs/dexgate/internal/chains"
	apperr "github.com/dexgate-labs/dexgate/internal/errors"
	"github.com/dexgate-labs/dexgate/internal/model"
)

type fakeAggregator struct {
	quote model.Quote
	err   error
	calls int
}

func (f *fakeAggregator) Quote(ctx context.Context, intent model.TradeIntent) (model.Quote, error) {
	f.calls++
	if f.err != nil {
		return model.Quote{}, f.err
	}
	return f.quote, nil
}

func testIntent() model.TradeIntent {
	return model.TradeIntent{
		ChainID:     probeChain.ID,
		TokenIn:     chains.NativeAddress,
		TokenOut:    "0x1111111111111111111111111111111111111111",
		Amount:      big.NewInt(1_000_000),
		SlippagePct: "0.5",
	}
}

func TestResolveRejectsNonPositiveAmount(t *testing.T) {
	r := NewResolver(&fakeAggregator{}, &Prober{dial: fakeDial(&tierCaller{}, nil)}, nil)

	intent := testIntent()
	intent.Amount = big.NewInt(0)
	if _, err := r.Resolve(context.Background(), probeChain, intent); apperr.CodeOf(err) != apperr.CodeUsage {
		t.Fatalf("expected CodeUsage for zero amount, got %v", err)
	}

	intent.Amount = nil
	if _, err := r.Resolve(context.Background(), probeChain, intent); apperr.CodeOf(err) != apperr.CodeUsage {
		t.Fatalf("expected CodeUsage for missing amount, got %v", err)
	}
}

func TestResolveAggregatorIsPrimary(t *testing.T) {
	agg := &fakeAggregator{quote: model.Quote{DstAmount: "990000", Dex: "SushiSwap"}}
	caller := &tierCaller{amounts: map[uint32]*big.Int{3000: big.NewInt(1)}}
	r := NewResolver(agg, &Prober{dial: fakeDial(caller, nil)}, nil)

	got, err := r.Resolve(context.Background(), probeChain, testIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DstAmount != "990000" || got.Dex != "SushiSwap" {
		t.Fatalf("expected aggregator quote, got %+v", got)
	}
	if caller.calls != 0 {
		t.Fatal("on-chain probe must not run when the aggregator succeeds")
	}
}

func TestResolveFallsBackToOnChain(t *testing.T) {
	agg := &fakeAggregator{err: apperr.New(apperr.CodeRejected, "no route")}
	caller := &tierCaller{amounts: map[uint32]*big.Int{500: big.NewInt(987)}}
	r := NewResolver(agg, &Prober{dial: fakeDial(caller, nil)}, nil)

	got, err := r.Resolve(context.Background(), probeChain, testIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DstAmount != "987" || got.Dex != "uniswap-v3" || got.FeeTier != 500 {
		t.Fatalf("expected on-chain fallback quote, got %+v", got)
	}
}

func TestResolveWithoutAggregatorGoesOnChain(t *testing.T) {
	caller := &tierCaller{amounts: map[uint32]*big.Int{100: big.NewInt(42)}}
	r := NewResolver(nil, &Prober{dial: fakeDial(caller, nil)}, nil)

	got, err := r.Resolve(context.Background(), probeChain, testIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DstAmount != "42" {
		t.Fatalf("expected on-chain quote, got %+v", got)
	}
}

func TestResolveNoLiquidityWhenBothPathsFail(t *testing.T) {
	agg := &fakeAggregator{err: apperr.New(apperr.CodeRejected, "no route")}
	r := NewResolver(agg, &Prober{dial: fakeDial(&tierCaller{}, nil)}, nil)

	_, err := r.Resolve(context.Background(), probeChain, testIntent())
	if apperr.CodeOf(err) != apperr.CodeNoLiquidity {
		t.Fatalf("expected CodeNoLiquidity, got %v", err)
	}
}

func TestResolveRejectedPlusUnreachableChainIsNoLiquidity(t *testing.T) {
	agg := &fakeAggregator{err: apperr.New(apperr.CodeRejected, "no route")}
	r := NewResolver(agg, &Prober{dial: fakeDial(nil, context.DeadlineExceeded)}, nil)

	_, err := r.Resolve(context.Background(), probeChain, testIntent())
	if apperr.CodeOf(err) != apperr.CodeNoLiquidity {
		t.Fatalf("expected CodeNoLiquidity for rejected route with unreachable chain, got %v", err)
	}
}

func TestResolveUnavailableWhenNothingReachable(t *testing.T) {
	r := NewResolver(nil, &Prober{dial: fakeDial(nil, context.DeadlineExceeded)}, nil)

	_, err := r.Resolve(context.Background(), probeChain, testIntent())
	if apperr.CodeOf(err) != apperr.CodeUnavailable {
		t.Fatalf("expected CodeUnavailable, got %v", err)
	}
}

func TestResolveUsesRPCOverride(t *testing.T) {
	caller := &tierCaller{amounts: map[uint32]*big.Int{3000: big.NewInt(5)}}
	var dialedURL string
	prober := &Prober{dial: func(ctx context.Context, rpcURL string) (ethereum.ContractCaller, func(), error) {
		dialedURL = rpcURL
		return caller, func() {}, nil
	}}
	r := NewResolver(nil, prober, map[int64]string{probeChain.ID: "http://override.invalid"})

	if _, err := r.Resolve(context.Background(), probeChain, testIntent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dialedURL != "http://override.invalid" {
		t.Fatalf("expected override RPC URL, dialed %q", dialedURL)
	}
}
