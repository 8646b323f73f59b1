// Package index holds the read-only serving state for the suggestion
// engine: the known-command list, the sequence-transition table, and the
// similarity index. An Index is built once at startup, before the server
// starts accepting connections, and is never mutated afterwards, so any
// number of workers may read it without synchronization.
package index

import (
	"errors"
	"fmt"
	"time"

	"nudge/internal/store"
	"nudge/internal/tfidf"
)

// ErrIndexUnavailable reports that stored artifacts could not be loaded.
// The caller is expected to keep running on the degraded index returned
// alongside the error rather than exit.
var ErrIndexUnavailable = errors.New("command index unavailable")

// Index is the immutable collection of serving artifacts.
type Index struct {
	KnownCommands []string
	Transitions   map[string]map[string]int
	Similarity    *tfidf.Vectorizer
	TrainedAt     time.Time
}

// Empty returns an index with no commands. All signals treat it as
// "no signal", not as an error.
func Empty() *Index {
	return Build(&store.Artifacts{})
}

// Build constructs an index from artifacts, fitting the similarity model
// over the corpus. Nil maps and slices are normalized so readers never
// see nil.
func Build(a *store.Artifacts) *Index {
	idx := &Index{
		KnownCommands: a.KnownCommands,
		Transitions:   a.Transitions,
		TrainedAt:     a.TrainedAt,
		Similarity:    tfidf.Fit(a.Corpus),
	}
	if idx.KnownCommands == nil {
		idx.KnownCommands = []string{}
	}
	if idx.Transitions == nil {
		idx.Transitions = map[string]map[string]int{}
	}
	return idx
}

// Load reads artifacts from the store, merges the optional seed commands,
// and builds the index. When the store is nil or artifacts are missing or
// corrupt it returns a usable index built from the seed alone together with
// an error wrapping ErrIndexUnavailable, so the service can degrade instead
// of refusing to start.
func Load(s *store.Store, seed []string) (*Index, error) {
	arts := &store.Artifacts{}
	var loadErr error
	if s == nil {
		loadErr = fmt.Errorf("%w: no artifact store", ErrIndexUnavailable)
	} else if a, err := s.LoadArtifacts(); err != nil {
		loadErr = fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	} else {
		arts = a
	}
	mergeSeed(arts, seed)
	return Build(arts), loadErr
}

// mergeSeed appends seed commands not already present to both the known
// list and the similarity corpus, preserving order.
func mergeSeed(a *store.Artifacts, seed []string) {
	if len(seed) == 0 {
		return
	}
	known := make(map[string]bool, len(a.KnownCommands))
	for _, c := range a.KnownCommands {
		known[c] = true
	}
	inCorpus := make(map[string]bool, len(a.Corpus))
	for _, c := range a.Corpus {
		inCorpus[c] = true
	}
	for _, c := range seed {
		if !known[c] {
			a.KnownCommands = append(a.KnownCommands, c)
			known[c] = true
		}
		if !inCorpus[c] {
			a.Corpus = append(a.Corpus, c)
			inCorpus[c] = true
		}
	}
}
