// Package match fuzzy-resolves user-supplied token names against the
// directory's symbols. Results are advisory: a suggestion is never applied
// without the user confirming it.
package match

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/neptuneai/swap-agent/core"
)

// DefaultThreshold is the minimum similarity score for a suggestion.
const DefaultThreshold = 70

// alternativeFloor is the minimum score for a candidate to be surfaced
// as an alternative when no (or a weaker) suggestion exists.
const alternativeFloor = 50

// maxCandidates bounds how many ranked matches are considered.
const maxCandidates = 3

type scored struct {
	symbol string
	score  int
}

// Tokens scores input against every candidate symbol and reports the best
// match. An exact case-insensitive hit wins outright with confidence 100.
// Otherwise the top 3 by edit-distance ratio are ranked; a best score below
// threshold yields no suggestion, but candidates scoring at least 50 are
// still surfaced as alternatives, most similar first. Ties keep first-seen
// order.
func Tokens(input string, candidates []string, threshold int) core.MatchResult {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	result := core.MatchResult{Alternatives: []string{}}
	in := strings.ToUpper(strings.TrimSpace(input))
	if in == "" || len(candidates) == 0 {
		return result
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		cu := strings.ToUpper(strings.TrimSpace(c))
		if cu == in {
			return core.MatchResult{
				ExactMatch:   true,
				Suggested:    cu,
				Confidence:   100,
				Alternatives: []string{},
			}
		}
		ranked = append(ranked, scored{symbol: cu, score: fuzzy.Ratio(in, cu)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > maxCandidates {
		ranked = ranked[:maxCandidates]
	}

	if ranked[0].score < threshold {
		for _, m := range ranked {
			if m.score >= alternativeFloor {
				result.Alternatives = append(result.Alternatives, m.symbol)
			}
		}
		return result
	}

	result.Suggested = ranked[0].symbol
	result.Confidence = ranked[0].score
	for _, m := range ranked[1:] {
		if m.score >= alternativeFloor {
			result.Alternatives = append(result.Alternatives, m.symbol)
		}
	}
	return result
}
