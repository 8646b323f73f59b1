package suggest

import (
	"fmt"
	"sort"

	"nudge/internal/index"
	"nudge/pkg/protocol"
)

// NextSignal predicts the command likely to follow the query, using the
// first-order transition table. The lookup is exact: a query that does not
// match a historical key verbatim yields nothing, even on a near-miss.
type NextSignal struct {
	idx           *index.Index
	topN          int
	minConfidence float64
}

// NewNextSignal creates a next-command signal over the given index.
func NewNextSignal(idx *index.Index, topN int, minConfidence float64) *NextSignal {
	return &NextSignal{idx: idx, topN: topN, minConfidence: minConfidence}
}

// Name implements Generator.
func (s *NextSignal) Name() string { return "nextcmd" }

// Generate implements Generator.
func (s *NextSignal) Generate(query string) ([]protocol.Suggestion, error) {
	successors, ok := s.idx.Transitions[query]
	if !ok || len(successors) == 0 {
		return nil, nil
	}

	total := 0
	for _, count := range successors {
		total += count
	}
	if total <= 0 {
		return nil, nil
	}

	type pair struct {
		cmd   string
		count int
	}
	ranked := make([]pair, 0, len(successors))
	for cmd, count := range successors {
		ranked = append(ranked, pair{cmd, count})
	}
	// Ties broken by name so output is deterministic regardless of map order.
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].count != ranked[b].count {
			return ranked[a].count > ranked[b].count
		}
		return ranked[a].cmd < ranked[b].cmd
	})
	if len(ranked) > s.topN {
		ranked = ranked[:s.topN]
	}

	var out []protocol.Suggestion
	for _, p := range ranked {
		confidence := float64(p.count) / float64(total)
		if confidence <= s.minConfidence {
			continue
		}
		out = append(out, protocol.Suggestion{
			Source:     protocol.SourceNextCmd,
			Suggestion: p.cmd,
			Confidence: confidence,
			Reason:     fmt.Sprintf("Commonly follows '%s'", query),
		})
	}
	return out, nil
}
