// Package protocol defines the newline-delimited JSON wire types exchanged
// between the suggestion server and its clients.
package protocol

// Source identifies which signal produced a suggestion.
type Source string

const (
	SourceTypoFixer Source = "TypoFixer"
	SourceNextCmd   Source = "NextCmd"
	SourceTemplate  Source = "Template"
	SourcePartial   Source = "Partial"
	SourceInfo      Source = "Info"
)

// Suggestion is a single ranked candidate completion.
type Suggestion struct {
	Source     Source  `json:"source"`
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Request is one suggestion lookup. Model is an opaque label echoed back in
// the response; it does not influence ranking.
type Request struct {
	Cmd   string `json:"cmd"`
	Model string `json:"model,omitempty"`
}

// Response carries the ranked suggestions for one request, ordered by
// descending confidence.
type Response struct {
	Model       string       `json:"model"`
	Suggestions []Suggestion `json:"suggestions"`
}

// ErrorResponse is sent when the server fails to compute suggestions.
type ErrorResponse struct {
	Error string `json:"error"`
}
