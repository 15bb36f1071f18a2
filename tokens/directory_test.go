package tokens

import (
	"context"
	"errors"
	"testing"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"

	"github.com/neptuneai/swap-agent/core"
)

type fakeLister struct {
	tokens []oneclick.TokenResponse
	err    error
	calls  int
}

func (f *fakeLister) Tokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func sampleTokens() []oneclick.TokenResponse {
	return []oneclick.TokenResponse{
		{AssetId: "nep141:wrap.near", Symbol: "wNEAR", Blockchain: "near", Decimals: 24},
		{AssetId: "nep141:eth.omft.near", Symbol: "ETH", Blockchain: "near", Decimals: 18},
		{AssetId: "nep141:usdc.near", Symbol: "USDC", Blockchain: "near", Decimals: 6},
		{AssetId: "base-usdc", Symbol: "USDC", Blockchain: "base", Decimals: 6},
		// Duplicate symbol on the same chain: first occurrence wins.
		{AssetId: "nep141:usdc2.near", Symbol: "USDC", Blockchain: "near", Decimals: 6},
	}
}

func TestFetchCachesWithinWindow(t *testing.T) {
	lister := &fakeLister{tokens: sampleTokens()}
	d := NewDirectory(lister)

	if _, err := d.Fetch(context.Background(), false); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := d.Fetch(context.Background(), false); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if lister.calls != 1 {
		t.Errorf("expected exactly one upstream call within the cache window, got %d", lister.calls)
	}
}

func TestFetchRefreshesAfterExpiry(t *testing.T) {
	lister := &fakeLister{tokens: sampleTokens()}
	d := NewDirectory(lister)

	now := time.Now()
	d.now = func() time.Time { return now }
	if _, err := d.Fetch(context.Background(), false); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	d.now = func() time.Time { return now.Add(CacheDuration + time.Minute) }
	if _, err := d.Fetch(context.Background(), false); err != nil {
		t.Fatalf("post-expiry fetch failed: %v", err)
	}
	if lister.calls != 2 {
		t.Errorf("expected a second upstream call after expiry, got %d", lister.calls)
	}
}

func TestStaleSnapshotServedOnRefreshFailure(t *testing.T) {
	lister := &fakeLister{tokens: sampleTokens()}
	d := NewDirectory(lister)

	now := time.Now()
	d.now = func() time.Time { return now }
	first, err := d.Fetch(context.Background(), false)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	lister.err = errors.New("connection refused")
	d.now = func() time.Time { return now.Add(CacheDuration + time.Minute) }
	stale, err := d.Fetch(context.Background(), false)
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if len(stale) != len(first) {
		t.Errorf("stale snapshot differs: got %d tokens, want %d", len(stale), len(first))
	}
}

func TestNoCacheFailurePropagates(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	d := NewDirectory(lister)

	if _, err := d.Fetch(context.Background(), false); !errors.Is(err, core.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestWrappedNativeAliasCollapses(t *testing.T) {
	lister := &fakeLister{tokens: sampleTokens()}
	d := NewDirectory(lister)

	tok, ok, err := d.Lookup(context.Background(), "near")
	if err != nil || !ok {
		t.Fatalf("lookup NEAR: ok=%v err=%v", ok, err)
	}
	if tok.Symbol != "NEAR" {
		t.Errorf("expected wNEAR collapsed to NEAR, got %q", tok.Symbol)
	}
	if tok.AssetID != "nep141:wrap.near" {
		t.Errorf("expected wrap.near asset id, got %q", tok.AssetID)
	}
}

func TestDuplicateSymbolFirstOccurrenceWins(t *testing.T) {
	lister := &fakeLister{tokens: sampleTokens()}
	d := NewDirectory(lister)

	byChain, err := d.ByChain(context.Background())
	if err != nil {
		t.Fatalf("ByChain failed: %v", err)
	}
	var nearUSDC int
	for _, tok := range byChain["near"] {
		if tok.Symbol == "USDC" {
			nearUSDC++
		}
	}
	if nearUSDC != 1 {
		t.Errorf("expected one USDC on near after dedup, got %d", nearUSDC)
	}
	// The same symbol may still appear on a distinct chain.
	if len(byChain["base"]) != 1 {
		t.Errorf("expected USDC retained on base, got %v", byChain["base"])
	}
}

func TestChainOfUnknownToken(t *testing.T) {
	lister := &fakeLister{tokens: sampleTokens()}
	d := NewDirectory(lister)

	if _, err := d.ChainOf(context.Background(), "DOGE"); err == nil {
		t.Fatal("expected error for unknown token")
	}
}
