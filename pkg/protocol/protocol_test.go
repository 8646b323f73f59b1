package protocol

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

func TestResponseRoundTrip(t *testing.T) {
	in := Response{
		Model: "default",
		Suggestions: []Suggestion{
			{Source: SourceTypoFixer, Suggestion: "git status", Confidence: 0.8, Reason: "Possible typo correction for 'git stau'"},
			{Source: SourcePartial, Suggestion: "git stash", Confidence: 0.3, Reason: "Contains 'sta'"},
		},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestRequestOmitsEmptyModel(t *testing.T) {
	data, err := json.Marshal(Request{Cmd: "ls"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"cmd":"ls"}` {
		t.Errorf("unexpected encoding: %s", data)
	}
}
