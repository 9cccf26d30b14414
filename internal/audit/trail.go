package audit

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteTrail renders entries as a plain-text document, one entry per
// unindented line with indented detail lines below it:
//
//	2024-03-01T10:00:00Z | file_ingested | Ingested file: q1.csv
//	    format=csv
//	    rows=120
//
// The format is the only persisted artifact guaranteed to stay
// human-readable end to end.
func WriteTrail(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		line := fmt.Sprintf("%s | %s | %s\n",
			e.Timestamp.UTC().Format(time.RFC3339), e.EventType, e.Description)
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write trail entry: %w", err)
		}

		for _, k := range sortedDetailKeys(e.Details) {
			if _, err := fmt.Fprintf(w, "    %s=%v\n", k, e.Details[k]); err != nil {
				return fmt.Errorf("write trail detail: %w", err)
			}
		}

		if e.ErrorMessage != "" {
			if _, err := fmt.Fprintf(w, "    error: %s\n", e.ErrorMessage); err != nil {
				return fmt.Errorf("write trail error: %w", err)
			}
		}
	}

	return nil
}

// ParseTrail reads a document produced by WriteTrail back into entries.
// Detail values come back as strings; the ordered (event type, description)
// sequence round-trips exactly.
func ParseTrail(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "    ") {
			if len(entries) == 0 {
				return nil, fmt.Errorf("trail detail before any entry: %q", line)
			}

			last := &entries[len(entries)-1]
			detail := strings.TrimPrefix(line, "    ")

			if msg, ok := strings.CutPrefix(detail, "error: "); ok {
				last.ErrorMessage = msg
				continue
			}

			key, value, ok := strings.Cut(detail, "=")
			if !ok {
				return nil, fmt.Errorf("malformed trail detail: %q", line)
			}

			if last.Details == nil {
				last.Details = make(map[string]any)
			}

			last.Details[key] = value

			continue
		}

		parts := strings.SplitN(line, " | ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed trail line: %q", line)
		}

		ts, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return nil, fmt.Errorf("parse trail timestamp: %w", err)
		}

		entries = append(entries, Entry{
			Timestamp:   ts,
			EventType:   EventType(parts[1]),
			Description: parts[2],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trail: %w", err)
	}

	return entries, nil
}
