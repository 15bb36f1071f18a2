package core

import "time"

// Token is a swappable asset known to the 1-Click API.
// Symbol is the normalized uppercase form: wrapped-native aliases
// (WNEAR) collapse into the canonical symbol (NEAR).
type Token struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Decimals        int    `json:"decimals"`
	Blockchain      string `json:"blockchain"`
	AssetID         string `json:"assetId"`
	ContractAddress string `json:"contractAddress,omitempty"`
}

// TokenSnapshot is an immutable point-in-time token list. Snapshots are
// replaced wholesale on refresh, never mutated in place, so a stale one
// can always be served as a fallback.
type TokenSnapshot struct {
	Tokens    []Token
	FetchedAt time.Time
}

// MatchResult is the advisory outcome of fuzzy-resolving a user-supplied
// token name. It never auto-substitutes: callers must confirm a suggestion.
type MatchResult struct {
	ExactMatch   bool     `json:"exact_match"`
	Suggested    string   `json:"suggested_token,omitempty"`
	Confidence   int      `json:"confidence"`
	Alternatives []string `json:"alternatives"`
}
