package suggest

import (
	"errors"
	"math"
	"testing"

	"nudge/internal/index"
	"nudge/internal/store"
	"nudge/pkg/protocol"
)

func newIndex(commands []string, transitions map[string]map[string]int, corpus []string) *index.Index {
	return index.Build(&store.Artifacts{
		KnownCommands: commands,
		Transitions:   transitions,
		Corpus:        corpus,
	})
}

// fakeGen is a scripted signal generator for engine tests.
type fakeGen struct {
	name   string
	out    []protocol.Suggestion
	err    error
	panics bool
	calls  int
}

func (f *fakeGen) Name() string { return f.name }

func (f *fakeGen) Generate(query string) ([]protocol.Suggestion, error) {
	f.calls++
	if f.panics {
		panic("signal exploded")
	}
	return f.out, f.err
}

func TestEmptyQueryReturnsInfo(t *testing.T) {
	e := NewEngine(index.Empty())
	for _, q := range []string{"", "   ", "\t\n"} {
		got := e.Suggest(q)
		if len(got) != 1 {
			t.Fatalf("Suggest(%q) returned %d suggestions, want 1", q, len(got))
		}
		s := got[0]
		if s.Source != protocol.SourceInfo {
			t.Errorf("source = %q, want Info", s.Source)
		}
		if s.Confidence != 0.0 {
			t.Errorf("confidence = %v, want 0", s.Confidence)
		}
	}
}

func TestEmptyQuerySkipsSignals(t *testing.T) {
	gen := &fakeGen{name: "spy"}
	e := NewEngine(index.Empty(), WithGenerators(gen))

	e.Suggest("   ")
	if gen.calls != 0 {
		t.Errorf("generators invoked %d times for empty query, want 0", gen.calls)
	}

	e.Suggest("ls")
	if gen.calls != 1 {
		t.Errorf("generators invoked %d times for non-empty query, want 1", gen.calls)
	}
}

func TestTypoCorrectionScenario(t *testing.T) {
	idx := newIndex(
		[]string{"git status", "git push", "docker ps"},
		nil,
		[]string{"git status", "git push", "docker ps"},
	)
	e := NewEngine(idx)

	got := e.Suggest("git stau")
	var typo *protocol.Suggestion
	for i := range got {
		if got[i].Source == protocol.SourceTypoFixer {
			typo = &got[i]
			break
		}
	}
	if typo == nil {
		t.Fatalf("no TypoFixer suggestion in %+v", got)
	}
	if typo.Suggestion != "git status" {
		t.Errorf("typo suggestion = %q, want %q", typo.Suggestion, "git status")
	}
	if math.Abs(typo.Confidence-0.8) > 1e-9 {
		t.Errorf("typo confidence = %v, want 0.8", typo.Confidence)
	}
	assertUniqueAndSorted(t, got)
}

func TestNextCommandScenario(t *testing.T) {
	idx := newIndex(nil, map[string]map[string]int{
		"git add": {"git commit": 8, "git push": 2},
	}, nil)
	e := NewEngine(idx)

	got := e.Suggest("git add")
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2: %+v", len(got), got)
	}
	if got[0].Suggestion != "git commit" || math.Abs(got[0].Confidence-0.8) > 1e-9 {
		t.Errorf("first = %+v, want git commit at 0.8", got[0])
	}
	if got[1].Suggestion != "git push" || math.Abs(got[1].Confidence-0.2) > 1e-9 {
		t.Errorf("second = %+v, want git push at 0.2", got[1])
	}
	for _, s := range got {
		if s.Source != protocol.SourceNextCmd {
			t.Errorf("source = %q, want NextCmd", s.Source)
		}
	}
}

func TestNextCommandExactKeyOnly(t *testing.T) {
	idx := newIndex(nil, map[string]map[string]int{
		"git add": {"git commit": 8},
	}, nil)
	e := NewEngine(idx)

	// Near-miss of a transition key yields nothing.
	if got := e.Suggest("git ad x"); len(got) != 0 {
		t.Errorf("near-miss key produced %+v, want none", got)
	}
}

func TestFallbackPartialScenario(t *testing.T) {
	idx := newIndex([]string{"zzzqqqlonger"}, nil, nil)
	e := NewEngine(idx)

	got := e.Suggest("zzzqqq")
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(got), got)
	}
	s := got[0]
	if s.Source != protocol.SourcePartial {
		t.Errorf("source = %q, want Partial", s.Source)
	}
	if s.Suggestion != "zzzqqqlonger" {
		t.Errorf("suggestion = %q, want zzzqqqlonger", s.Suggestion)
	}
	if math.Abs(s.Confidence-0.3) > 1e-9 {
		t.Errorf("confidence = %v, want 0.3", s.Confidence)
	}
}

func TestFallbackSkipsSingleCharQuery(t *testing.T) {
	idx := newIndex([]string{"ab", "abc"}, nil, nil)
	e := NewEngine(idx)

	if got := e.Suggest("a"); len(got) != 0 {
		t.Errorf("single-char query produced %+v, want none", got)
	}
}

func TestFallbackSkipsSingleRuneQuery(t *testing.T) {
	idx := newIndex([]string{"échafaud"}, nil, nil)
	e := NewEngine(idx)

	// One rune, even when it spans multiple bytes, is below the floor.
	if got := e.Suggest("é"); len(got) != 0 {
		t.Errorf("single-rune query produced %+v, want none", got)
	}

	got := e.Suggest("éch")
	if len(got) != 1 || got[0].Source != protocol.SourcePartial {
		t.Errorf("multi-rune query got %+v, want one Partial", got)
	}
}

func TestFallbackExcludesExactMatch(t *testing.T) {
	idx := newIndex([]string{"zzzqqq"}, nil, nil)
	// Typo threshold 1.0 keeps the exact-match typo hit out, forcing the
	// fallback path to decide about the equal command.
	e := NewEngine(idx, WithTypoThreshold(1.0))

	if got := e.Suggest("zzzqqq"); len(got) != 0 {
		t.Errorf("fallback suggested the query itself: %+v", got)
	}
}

func TestFallbackOnlyWhenPrimariesEmpty(t *testing.T) {
	idx := newIndex([]string{"foo bar"}, nil, []string{"foo bar"})
	e := NewEngine(idx)

	got := e.Suggest("foo")
	if len(got) == 0 {
		t.Fatal("expected template suggestions")
	}
	for _, s := range got {
		if s.Source == protocol.SourcePartial {
			t.Errorf("Partial emitted despite primary signals firing: %+v", s)
		}
	}
}

func TestFallbackLimit(t *testing.T) {
	idx := newIndex([]string{"qqx alpha", "qqx bravo", "qqx charlie", "qqx delta", "qqx echo"}, nil, nil)
	e := NewEngine(idx)

	got := e.Suggest("qqx")
	if len(got) != 3 {
		t.Errorf("fallback returned %d suggestions, want 3", len(got))
	}
	for i, want := range []string{"qqx alpha", "qqx bravo", "qqx charlie"} {
		if got[i].Suggestion != want {
			t.Errorf("fallback[%d] = %q, want %q (corpus order)", i, got[i].Suggestion, want)
		}
	}
}

func TestTypoDoubleGate(t *testing.T) {
	low := &fakeGen{name: "typo", out: []protocol.Suggestion{
		{Source: protocol.SourceTypoFixer, Suggestion: "git status", Confidence: 0.55},
	}}
	e := NewEngine(index.Empty(), WithGenerators(low))
	if got := e.Suggest("git stau"); len(got) != 0 {
		t.Errorf("typo below engine gate survived: %+v", got)
	}

	high := &fakeGen{name: "typo", out: []protocol.Suggestion{
		{Source: protocol.SourceTypoFixer, Suggestion: "git status", Confidence: 0.65},
	}}
	e = NewEngine(index.Empty(), WithGenerators(high))
	if got := e.Suggest("git stau"); len(got) != 1 {
		t.Errorf("typo above engine gate dropped: %+v", got)
	}
}

func TestTemplateEchoExcluded(t *testing.T) {
	gen := &fakeGen{name: "template", out: []protocol.Suggestion{
		{Source: protocol.SourceTemplate, Suggestion: "Git Status", Confidence: 0.9},
		{Source: protocol.SourceTemplate, Suggestion: "git stash", Confidence: 0.4},
	}}
	e := NewEngine(index.Empty(), WithGenerators(gen))

	got := e.Suggest("git status")
	if len(got) != 1 || got[0].Suggestion != "git stash" {
		t.Errorf("expected only 'git stash', got %+v", got)
	}
}

func TestDedupeKeepsHighestConfidence(t *testing.T) {
	g1 := &fakeGen{name: "a", out: []protocol.Suggestion{
		{Source: protocol.SourceNextCmd, Suggestion: "git push", Confidence: 0.4},
	}}
	g2 := &fakeGen{name: "b", out: []protocol.Suggestion{
		{Source: protocol.SourceTemplate, Suggestion: "git push", Confidence: 0.9},
	}}
	e := NewEngine(index.Empty(), WithGenerators(g1, g2))

	got := e.Suggest("git")
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(got), got)
	}
	if got[0].Confidence != 0.9 || got[0].Source != protocol.SourceTemplate {
		t.Errorf("dedupe kept %+v, want the 0.9 Template entry", got[0])
	}
}

func TestTruncateAndSort(t *testing.T) {
	out := make([]protocol.Suggestion, 0, 8)
	confs := []float64{0.1, 0.9, 0.3, 0.7, 0.5, 0.8, 0.2, 0.6}
	for i, c := range confs {
		out = append(out, protocol.Suggestion{
			Source:     protocol.SourceNextCmd,
			Suggestion: string(rune('a' + i)),
			Confidence: c,
		})
	}
	e := NewEngine(index.Empty(), WithGenerators(&fakeGen{name: "many", out: out}))

	got := e.Suggest("anything")
	if len(got) != 5 {
		t.Fatalf("got %d suggestions, want 5", len(got))
	}
	assertUniqueAndSorted(t, got)
	if got[0].Confidence != 0.9 {
		t.Errorf("top confidence = %v, want 0.9", got[0].Confidence)
	}
}

func TestStableOrderOnTies(t *testing.T) {
	gen := &fakeGen{name: "ties", out: []protocol.Suggestion{
		{Source: protocol.SourceNextCmd, Suggestion: "first", Confidence: 0.3},
		{Source: protocol.SourceNextCmd, Suggestion: "second", Confidence: 0.3},
	}}
	e := NewEngine(index.Empty(), WithGenerators(gen))

	got := e.Suggest("tie")
	if len(got) != 2 || got[0].Suggestion != "first" || got[1].Suggestion != "second" {
		t.Errorf("tie order not stable: %+v", got)
	}
}

func TestFailingSignalContributesNothing(t *testing.T) {
	failing := &fakeGen{name: "err", err: errors.New("index exploded")}
	panicking := &fakeGen{name: "panic", panics: true}
	healthy := &fakeGen{name: "ok", out: []protocol.Suggestion{
		{Source: protocol.SourceNextCmd, Suggestion: "git push", Confidence: 0.5},
	}}
	e := NewEngine(index.Empty(), WithGenerators(failing, panicking, healthy))

	got := e.Suggest("git")
	if len(got) != 1 || got[0].Suggestion != "git push" {
		t.Errorf("healthy signal lost among failures: %+v", got)
	}
}

func TestConfidenceBounds(t *testing.T) {
	idx := newIndex(
		[]string{"git status", "git push", "docker run", "npm install"},
		map[string]map[string]int{"git add": {"git commit": 3, "git push": 1}},
		[]string{"git status", "git push", "docker run", "npm install"},
	)
	e := NewEngine(idx)

	for _, q := range []string{"git", "git add", "docker", "npm instal", "zz"} {
		got := e.Suggest(q)
		if len(got) > DefaultMaxResults {
			t.Errorf("Suggest(%q) returned %d suggestions, max %d", q, len(got), DefaultMaxResults)
		}
		for _, s := range got {
			if s.Confidence < 0 || s.Confidence > 1 {
				t.Errorf("Suggest(%q): confidence %v out of [0,1]", q, s.Confidence)
			}
		}
		assertUniqueAndSorted(t, got)
	}
}

func assertUniqueAndSorted(t *testing.T, got []protocol.Suggestion) {
	t.Helper()
	seen := make(map[string]bool)
	for i, s := range got {
		if seen[s.Suggestion] {
			t.Errorf("duplicate suggestion text %q", s.Suggestion)
		}
		seen[s.Suggestion] = true
		if i > 0 && got[i-1].Confidence < s.Confidence {
			t.Errorf("not sorted: %v before %v", got[i-1].Confidence, s.Confidence)
		}
	}
}
