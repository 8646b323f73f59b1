// Package suggest implements the signal generators and the ranking engine
// that merges their candidates into one ordered suggestion list.
package suggest

import "nudge/pkg/protocol"

// Generator is one independent scoring strategy. Generate receives a
// trimmed, non-empty query and returns zero or more scored candidates.
// A generator that returns an error contributes no candidates; the engine
// never fails a request over a single signal.
type Generator interface {
	Name() string
	Generate(query string) ([]protocol.Suggestion, error)
}
