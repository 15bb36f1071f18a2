// Package tokens maintains the directory of swappable tokens: a cached
// snapshot of the 1-Click token list with symbol aliasing and a stale
// fallback, so the agent never operates with zero token data once a first
// fetch has succeeded.
package tokens

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"

	"github.com/neptuneai/swap-agent/core"
)

// CacheDuration is how long a snapshot is served without refreshing.
const CacheDuration = 6 * time.Hour

const fetchTimeout = 10 * time.Second

// Lister fetches the raw token list from the upstream API.
type Lister interface {
	Tokens(ctx context.Context) ([]oneclick.TokenResponse, error)
}

// Directory caches the token list. It is injectable (not a process
// singleton) so independent sessions and tests can own their own cache.
type Directory struct {
	client Lister
	now    func() time.Time

	mu       sync.Mutex
	snapshot *core.TokenSnapshot
}

// NewDirectory creates a Directory backed by the given upstream client.
func NewDirectory(client Lister) *Directory {
	return &Directory{
		client: client,
		now:    time.Now,
	}
}

// Fetch returns the current token list. A snapshot younger than
// CacheDuration is returned as-is; otherwise a refresh is attempted. If the
// refresh fails and any snapshot exists it is served stale; only when no
// snapshot has ever been taken does Fetch fail, with
// core.ErrUpstreamUnavailable.
func (d *Directory) Fetch(ctx context.Context, forceRefresh bool) ([]core.Token, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.snapshot != nil && !forceRefresh && d.now().Sub(d.snapshot.FetchedAt) < CacheDuration {
		return d.snapshot.Tokens, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	raw, err := d.client.Tokens(fetchCtx)
	if err != nil {
		if d.snapshot != nil {
			log.Printf("[TOKENS] refresh failed, serving stale snapshot (%d tokens): %v", len(d.snapshot.Tokens), err)
			return d.snapshot.Tokens, nil
		}
		return nil, fmt.Errorf("%w: %v", core.ErrUpstreamUnavailable, err)
	}

	list := normalize(raw)
	if len(list) == 0 {
		if d.snapshot != nil {
			log.Printf("[TOKENS] upstream returned empty list, serving stale snapshot")
			return d.snapshot.Tokens, nil
		}
		return nil, fmt.Errorf("%w: upstream returned empty token list", core.ErrUpstreamUnavailable)
	}

	d.snapshot = &core.TokenSnapshot{Tokens: list, FetchedAt: d.now()}
	log.Printf("[TOKENS] loaded %d tokens from 1-Click API", len(list))
	return list, nil
}

// Lookup finds a token by symbol, case-insensitive. When the same symbol
// exists on several chains, the first occurrence in API response order wins.
func (d *Directory) Lookup(ctx context.Context, symbol string) (core.Token, bool, error) {
	list, err := d.Fetch(ctx, false)
	if err != nil {
		return core.Token{}, false, err
	}
	want := strings.ToUpper(strings.TrimSpace(symbol))
	for _, t := range list {
		if t.Symbol == want {
			return t, true, nil
		}
	}
	return core.Token{}, false, nil
}

// Symbols returns the distinct token symbols in first-seen order.
func (d *Directory) Symbols(ctx context.Context) ([]string, error) {
	list, err := d.Fetch(ctx, false)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(list))
	symbols := make([]string, 0, len(list))
	for _, t := range list {
		if !seen[t.Symbol] {
			seen[t.Symbol] = true
			symbols = append(symbols, t.Symbol)
		}
	}
	return symbols, nil
}

// ChainOf returns the blockchain a symbol resolves to.
func (d *Directory) ChainOf(ctx context.Context, symbol string) (string, error) {
	t, ok, err := d.Lookup(ctx, symbol)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("unknown token %q", strings.ToUpper(symbol))
	}
	return t.Blockchain, nil
}

// ByChain groups the directory's tokens by blockchain.
func (d *Directory) ByChain(ctx context.Context) (map[string][]core.Token, error) {
	list, err := d.Fetch(ctx, false)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]core.Token)
	for _, t := range list {
		grouped[t.Blockchain] = append(grouped[t.Blockchain], t)
	}
	return grouped, nil
}

// normalize maps the raw API items to core.Tokens: uppercases symbols,
// collapses wrapped-native aliases, and keeps the first occurrence of each
// symbol per chain in response order.
func normalize(raw []oneclick.TokenResponse) []core.Token {
	seen := make(map[string]bool, len(raw))
	out := make([]core.Token, 0, len(raw))
	for _, item := range raw {
		if item.AssetId == "" || item.Symbol == "" {
			continue
		}
		symbol := aliasSymbol(item.Symbol)
		chain := item.Blockchain
		key := symbol + "|" + chain
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, core.Token{
			Symbol:          symbol,
			Name:            item.Symbol,
			Decimals:        int(item.Decimals),
			Blockchain:      chain,
			AssetID:         item.AssetId,
			ContractAddress: item.GetContractAddress(),
		})
	}
	return out
}

// aliasSymbol collapses wrapped-native spellings into the canonical symbol.
func aliasSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "WNEAR" {
		return "NEAR"
	}
	return s
}
