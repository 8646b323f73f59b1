// Package corpus reads historical command corpora and turns them into the
// serving artifacts: a deduplicated known-command list, a first-order
// transition table, and the similarity corpus.
package corpus

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nudge/internal/store"
)

// ReadFile loads commands in file order. CSV files get column detection;
// anything else is read line by line as a shell history file.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSV(f)
	}
	return readLines(f)
}

// readCSV picks the command column by header name (any header containing
// "command" or "cmd", falling back to the first column) and returns the
// values in row order.
func readCSV(f *os.File) ([]string, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := 0
	for i, name := range records[0] {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "command") || strings.Contains(lower, "cmd") {
			col = i
			break
		}
	}

	var commands []string
	for _, row := range records[1:] {
		if col >= len(row) {
			continue
		}
		if cmd := strings.TrimSpace(row[col]); cmd != "" {
			commands = append(commands, cmd)
		}
	}
	return commands, nil
}

// readLines reads one command per line, stripping the zsh extended-history
// prefix (": <epoch>:<elapsed>;") when present.
func readLines(f *os.File) ([]string, error) {
	var commands []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, ": ") {
			if i := strings.Index(line, ";"); i >= 0 {
				line = strings.TrimSpace(line[i+1:])
			}
		}
		if line != "" {
			commands = append(commands, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	return commands, nil
}

// BuildArtifacts derives the serving artifacts from a raw command sequence.
// The known list and similarity corpus are deduplicated preserving first
// occurrence; the transition table counts consecutive pairs of the raw
// sequence, so successor statistics reflect actual usage order.
func BuildArtifacts(raw []string) *store.Artifacts {
	seen := make(map[string]bool, len(raw))
	var unique []string
	for _, cmd := range raw {
		if !seen[cmd] {
			seen[cmd] = true
			unique = append(unique, cmd)
		}
	}

	transitions := make(map[string]map[string]int)
	for i := 0; i+1 < len(raw); i++ {
		cur, next := raw[i], raw[i+1]
		if cur == "" || next == "" {
			continue
		}
		if transitions[cur] == nil {
			transitions[cur] = make(map[string]int)
		}
		transitions[cur][next]++
	}

	return &store.Artifacts{
		KnownCommands: unique,
		Transitions:   transitions,
		Corpus:        unique,
	}
}
