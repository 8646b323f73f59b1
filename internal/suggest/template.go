package suggest

import (
	"fmt"

	"nudge/internal/index"
	"nudge/pkg/protocol"
)

// TemplateSignal retrieves commands that share vocabulary with the query,
// by cosine similarity in the index's term-weighted vector space. It is the
// only semantic signal: it fires without a prefix or edit-distance match.
type TemplateSignal struct {
	idx      *index.Index
	topK     int
	minScore float64
}

// NewTemplateSignal creates a template-similarity signal over the given index.
func NewTemplateSignal(idx *index.Index, topK int, minScore float64) *TemplateSignal {
	return &TemplateSignal{idx: idx, topK: topK, minScore: minScore}
}

// Name implements Generator.
func (s *TemplateSignal) Name() string { return "template" }

// Generate implements Generator.
func (s *TemplateSignal) Generate(query string) ([]protocol.Suggestion, error) {
	hits := s.idx.Similarity.TopK(query, s.topK)

	var out []protocol.Suggestion
	for _, hit := range hits {
		if hit.Score <= s.minScore {
			continue
		}
		out = append(out, protocol.Suggestion{
			Source:     protocol.SourceTemplate,
			Suggestion: hit.Doc,
			Confidence: hit.Score,
			Reason:     fmt.Sprintf("Similar to '%s'", query),
		})
	}
	return out, nil
}
