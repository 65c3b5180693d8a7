package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnrecognizedTimestamp is returned when a string does not have the shape
// of a lamp test timestamp at all.
var ErrUnrecognizedTimestamp = errors.New("unrecognized timestamp")

// TimestampParser parses lamp test timestamps with day-first rules.
type TimestampParser struct {
	formats  []*TimestampFormat
	location *time.Location
}

// NewTimestampParser creates a parser that interprets the naive log times in
// loc. A nil loc means UTC.
func NewTimestampParser(loc *time.Location) *TimestampParser {
	if loc == nil {
		loc = time.UTC
	}
	return &TimestampParser{
		formats:  DefaultFormats(),
		location: loc,
	}
}

// Parse converts a timestamp string into an instant. The first date component
// is always the day; an impossible day-first date is an error rather than
// being reinterpreted month-first.
func (p *TimestampParser) Parse(s string) (time.Time, error) {
	normalized, err := normalizeTimestamp(s)
	if err != nil {
		return time.Time{}, err
	}

	var lastErr error
	for _, format := range p.formats {
		ts, err := time.ParseInLocation(format.Layout, normalized, p.location)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, lastErr)
}

// Detect returns the format s is written in, or nil if s cannot be parsed.
func (p *TimestampParser) Detect(s string) *TimestampFormat {
	normalized, err := normalizeTimestamp(s)
	if err != nil {
		return nil
	}
	for _, format := range p.formats {
		if _, err := time.ParseInLocation(format.Layout, normalized, p.location); err == nil {
			return format
		}
	}
	return nil
}

// IsAmbiguous reports whether s would read as a different valid date if the
// day and month were swapped.
func IsAmbiguous(s string) bool {
	m := timestampPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	day, err1 := strconv.Atoi(m[1])
	month, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return false
	}
	return day != month && day >= 1 && day <= 12 && month >= 1 && month <= 12
}

// normalizeTimestamp rewrites the date separators to '.' and collapses the
// whitespace so a single set of layouts covers every accepted variant.
func normalizeTimestamp(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	m := timestampPattern.FindStringSubmatch(trimmed)
	if m == nil || m[0] != trimmed {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedTimestamp, s)
	}
	clock := strings.Join(strings.Fields(m[4]), " ")
	return m[1] + "." + m[2] + "." + m[3] + " " + clock, nil
}
