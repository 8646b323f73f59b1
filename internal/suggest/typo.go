package suggest

import (
	"fmt"

	"nudge/internal/index"
	"nudge/pkg/protocol"
	"nudge/pkg/similarity"
)

// TypoSignal corrects misspelled commands by fuzzy-matching the query
// against every known command. It emits at most one candidate: the best
// match, and only when its similarity ratio exceeds the threshold. An
// exact match scores 1.0 and is still emitted, since confirming a known
// command is useful as a completion.
type TypoSignal struct {
	idx       *index.Index
	threshold float64
}

// NewTypoSignal creates a typo-correction signal over the given index.
func NewTypoSignal(idx *index.Index, threshold float64) *TypoSignal {
	return &TypoSignal{idx: idx, threshold: threshold}
}

// Name implements Generator.
func (s *TypoSignal) Name() string { return "typo" }

// Generate implements Generator.
func (s *TypoSignal) Generate(query string) ([]protocol.Suggestion, error) {
	best, ok := similarity.BestMatch(query, s.idx.KnownCommands)
	if !ok || best.Score <= s.threshold {
		return nil, nil
	}

	return []protocol.Suggestion{{
		Source:     protocol.SourceTypoFixer,
		Suggestion: best.Text,
		Confidence: best.Score,
		Reason: fmt.Sprintf("Possible typo correction for '%s' (edit distance %d)",
			query, similarity.Distance(query, best.Text)),
	}}, nil
}
