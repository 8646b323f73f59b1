package suggest

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"nudge/internal/index"
	"nudge/internal/logger"
	"nudge/internal/middleware"
	"nudge/pkg/protocol"
)

// Defaults for the ranking policy.
const (
	DefaultMaxResults    = 5
	DefaultTypoThreshold = 0.60
	DefaultMinConfidence = 0.05
	DefaultTemplateTopK  = 5
	DefaultNextTopN      = 3
	DefaultFallbackLimit = 3

	// fallbackConfidence is the fixed score for substring fallback hits.
	fallbackConfidence = 0.3
)

// Engine merges the signal generators' candidates into one deduplicated,
// confidence-ordered suggestion list. It owns the decision policy: signal
// priority, the typo confidence gate, query-echo exclusion, substring
// fallback, dedup and truncation.
type Engine struct {
	idx        *index.Index
	generators []Generator

	maxResults    int
	typoThreshold float64
	templateTopK  int
	fallbackLimit int

	log *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGenerators replaces the default signal generators. Order is priority
// order and determines tie-breaking among equal confidences.
func WithGenerators(gens ...Generator) Option {
	return func(e *Engine) { e.generators = gens }
}

// WithMaxResults bounds the returned suggestion list.
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxResults = n
		}
	}
}

// WithTypoThreshold sets the confidence gate applied to typo candidates.
func WithTypoThreshold(t float64) Option {
	return func(e *Engine) { e.typoThreshold = t }
}

// WithTemplateTopK sets how many similarity hits the template signal keeps.
func WithTemplateTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.templateTopK = k
		}
	}
}

// NewEngine creates a ranking engine over an immutable command index.
func NewEngine(idx *index.Index, opts ...Option) *Engine {
	e := &Engine{
		idx:           idx,
		maxResults:    DefaultMaxResults,
		typoThreshold: DefaultTypoThreshold,
		templateTopK:  DefaultTemplateTopK,
		fallbackLimit: DefaultFallbackLimit,
		log:           logger.With("suggest"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.generators == nil {
		e.generators = defaultGenerators(idx, e.typoThreshold, e.templateTopK)
	}
	return e
}

// defaultGenerators returns the three signals in priority order.
func defaultGenerators(idx *index.Index, typoThreshold float64, templateTopK int) []Generator {
	return []Generator{
		NewTypoSignal(idx, typoThreshold),
		NewNextSignal(idx, DefaultNextTopN, DefaultMinConfidence),
		NewTemplateSignal(idx, templateTopK, DefaultMinConfidence),
	}
}

// Suggest returns the ranked suggestions for a query. It never returns an
// error: a failing signal contributes nothing, and an empty query yields a
// single informational entry without invoking any signal.
func (e *Engine) Suggest(query string) []protocol.Suggestion {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []protocol.Suggestion{{
			Source:     protocol.SourceInfo,
			Suggestion: "Type a command to get suggestions",
			Confidence: 0.0,
			Reason:     "Empty input",
		}}
	}

	items := e.collect(trimmed)

	if len(items) == 0 && utf8.RuneCountInString(trimmed) > 1 {
		items = e.fallback(trimmed)
	}

	items = dedupe(items)

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Confidence > items[b].Confidence
	})

	if len(items) > e.maxResults {
		items = items[:e.maxResults]
	}
	return items
}

// collect runs every generator in priority order and accumulates the
// candidates that pass the engine-level gates.
func (e *Engine) collect(query string) []protocol.Suggestion {
	var items []protocol.Suggestion
	for _, g := range e.generators {
		out, err := middleware.SafeCallWithResult(func() ([]protocol.Suggestion, error) {
			return g.Generate(query)
		})
		if err != nil {
			e.log.Warn("signal failed", "signal", g.Name(), "error", err)
			continue
		}
		for _, s := range out {
			switch s.Source {
			case protocol.SourceTypoFixer:
				// Second gate on top of the signal's own threshold.
				if s.Confidence <= e.typoThreshold {
					continue
				}
			case protocol.SourceTemplate:
				// No point suggesting the literal input back.
				if strings.EqualFold(s.Suggestion, query) {
					continue
				}
			}
			items = append(items, s)
		}
	}
	return items
}

// fallback scans the known commands in order for case-insensitive substring
// matches, excluding the query itself. Invoked only when no primary signal
// fired and the query is longer than one character.
func (e *Engine) fallback(query string) []protocol.Suggestion {
	lower := strings.ToLower(query)
	var items []protocol.Suggestion
	for _, cmd := range e.idx.KnownCommands {
		cmdLower := strings.ToLower(cmd)
		if !strings.Contains(cmdLower, lower) || cmdLower == lower {
			continue
		}
		items = append(items, protocol.Suggestion{
			Source:     protocol.SourcePartial,
			Suggestion: cmd,
			Confidence: fallbackConfidence,
			Reason:     fmt.Sprintf("Contains '%s'", query),
		})
		if len(items) >= e.fallbackLimit {
			break
		}
	}
	return items
}

// dedupe groups candidates by suggestion text, keeping the accumulation
// position of the first occurrence and the confidence of the best one.
func dedupe(items []protocol.Suggestion) []protocol.Suggestion {
	if len(items) < 2 {
		return items
	}
	pos := make(map[string]int, len(items))
	out := items[:0]
	for _, it := range items {
		if i, seen := pos[it.Suggestion]; seen {
			if it.Confidence > out[i].Confidence {
				out[i] = it
			}
			continue
		}
		pos[it.Suggestion] = len(out)
		out = append(out, it)
	}
	return out
}
