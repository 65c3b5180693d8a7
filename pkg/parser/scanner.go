package parser

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// headerMarker identifies a candidate header line. Any line containing it
// starts a candidate entry, and a candidate that fails produces a Diagnostic.
const headerMarker = "Standard Lamp Name"

// blockKeyword introduces each test block.
const blockKeyword = "Test"

var (
	// headerPattern captures the lamp name (exactly 3 characters) and the
	// temperature token. Text after the temperature (units) is ignored.
	headerPattern = regexp.MustCompile(
		`Standard\sLamp\sName:\s(.{3})\s+Instrument\sTemperature:\s*(\S+)`)

	numericToken = regexp.MustCompile(`^[-0-9.]+$`)
	labelToken   = regexp.MustCompile(`^\w$`)
	temperature  = regexp.MustCompile(`^-?[0-9.]+$`)
)

// Scanner recognises lamp test entries line by line:
//
//	<timestamp line>
//	Standard Lamp Name: <3 chars>  Instrument Temperature: <float> ...
//	Test <label> <7 numbers>   (x3, tokens may wrap across lines)
type Scanner struct{}

// NewScanner creates a Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// ScanResult holds everything found in one text.
type ScanResult struct {
	// Entries are the well-formed entries in file order.
	Entries []Entry

	// Diagnostics lists every rejected candidate entry in file order.
	Diagnostics []Diagnostic

	// Lines is the number of lines scanned.
	Lines int
}

// Scan walks text and returns all well-formed entries. Malformed candidates
// never stop the scan; they are reported as diagnostics.
func (s *Scanner) Scan(ctx context.Context, text string) (*ScanResult, error) {
	lines := strings.Split(text, "\n")
	result := &ScanResult{Lines: len(lines)}

	for i := 0; i < len(lines); i++ {
		if !strings.Contains(lines[i], headerMarker) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry, last, diag := s.parseEntry(lines, i)
		if diag != nil {
			result.Diagnostics = append(result.Diagnostics, *diag)
			continue
		}
		result.Entries = append(result.Entries, *entry)
		i = last
	}

	return result, nil
}

// parseEntry parses the entry whose header sits on lines[h]. It returns the
// index of the last line consumed.
func (s *Scanner) parseEntry(lines []string, h int) (*Entry, int, *Diagnostic) {
	if h == 0 {
		return nil, h, &Diagnostic{Line: h + 1, Field: FieldTimestamp, Reason: "header has no preceding timestamp line"}
	}
	ts := FindTimestamp(lines[h-1])
	if ts == "" {
		return nil, h, &Diagnostic{Line: h, Field: FieldTimestamp, Reason: "no timestamp on line before header"}
	}

	entry := &Entry{Timestamp: ts, Line: h}

	m := headerPattern.FindStringSubmatch(lines[h])
	if m == nil {
		return nil, h, &Diagnostic{Line: h + 1, Field: FieldHeader,
			Reason: "expected 'Standard Lamp Name: <3 chars>  Instrument Temperature: <value>'"}
	}
	entry.Lamp = m[1]
	if strings.TrimSpace(entry.Lamp) == "" {
		return nil, h, &Diagnostic{Line: h + 1, Field: FieldLamp, Reason: "lamp name is blank"}
	}
	tempTok := trimTemperature(m[2])
	if !temperature.MatchString(tempTok) {
		return nil, h, &Diagnostic{Line: h + 1, Field: FieldTemperature, Reason: fmt.Sprintf("malformed temperature %q", m[2])}
	}
	t, err := strconv.ParseFloat(tempTok, 64)
	if err != nil {
		return nil, h, &Diagnostic{Line: h + 1, Field: FieldTemperature, Reason: fmt.Sprintf("malformed temperature %q", m[2])}
	}
	entry.Temperature = t

	if h+1 >= len(lines) || !strings.HasPrefix(lines[h+1], blockKeyword) {
		return nil, h, &Diagnostic{Line: h + 2, Field: FieldBlock, Reason: "header is not followed by a 'Test' line"}
	}

	toks := newTokenStream(lines, h+1)
	for b := 0; b < BlocksPerEntry; b++ {
		tok, line, ok := toks.next()
		if !ok || tok != blockKeyword {
			return nil, h, &Diagnostic{Line: line, Field: FieldBlock,
				Reason: fmt.Sprintf("expected 'Test' for block %d, got %s", b+1, describe(tok, ok))}
		}
		label, line, ok := toks.next()
		if !ok || !labelToken.MatchString(label) {
			return nil, h, &Diagnostic{Line: line, Field: FieldLabel,
				Reason: fmt.Sprintf("expected a 1-character label for block %d, got %s", b+1, describe(label, ok))}
		}
		entry.Blocks[b].Label = label

		for v := 0; v < ValuesPerBlock; v++ {
			tok, line, ok := toks.next()
			if !ok || !numericToken.MatchString(tok) {
				return nil, h, &Diagnostic{Line: line, Field: FieldValue,
					Reason: fmt.Sprintf("block %s: expected %d numeric values, got %d (next token %s)",
						label, ValuesPerBlock, v, describe(tok, ok))}
			}
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, h, &Diagnostic{Line: line, Field: FieldValue,
					Reason: fmt.Sprintf("block %s: value %d %q is not a number", label, v+1, tok)}
			}
			entry.Blocks[b].Values[v] = f
		}
	}

	return entry, toks.lastLine(), nil
}

// trimTemperature drops a unit glued to the number (e.g. "23.5C" or "23.5°C").
func trimTemperature(tok string) string {
	end := 0
	for end < len(tok) && strings.IndexByte("-0123456789.", tok[end]) >= 0 {
		end++
	}
	if end == 0 {
		return tok
	}
	return tok[:end]
}

func describe(tok string, ok bool) string {
	if !ok {
		return "end of file"
	}
	return strconv.Quote(tok)
}

// tokenStream yields whitespace-separated tokens across lines.
type tokenStream struct {
	lines   []string
	line    int // index into lines
	pending []string
	last    int // index of the line that produced the last token
}

func newTokenStream(lines []string, start int) *tokenStream {
	return &tokenStream{lines: lines, line: start, last: start}
}

// next returns the next token and its 1-based line number.
func (t *tokenStream) next() (string, int, bool) {
	for len(t.pending) == 0 {
		if t.line >= len(t.lines) {
			return "", len(t.lines), false
		}
		t.pending = strings.Fields(t.lines[t.line])
		t.last = t.line
		t.line++
	}
	tok := t.pending[0]
	t.pending = t.pending[1:]
	return tok, t.last + 1, true
}

func (t *tokenStream) lastLine() int {
	return t.last
}
