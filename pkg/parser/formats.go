package parser

import "regexp"

// TimestampFormat describes one accepted timestamp shape.
type TimestampFormat struct {
	Name     string   // Human-readable name
	Layout   string   // Go time layout applied after normalisation
	Examples []string // Example timestamps as they appear in lamp test files
}

// timestampPattern finds a timestamp anywhere on a line. The date separator
// may be '.' or '/', the year has 2 to 4 digits and the time is either
// 12-hour with AM/PM or 24-hour.
var timestampPattern = regexp.MustCompile(
	`(\d{1,2})[./](\d{1,2})[./](\d{2,4})\s` +
		`((?:1[0-2]|0?\d):[0-5]\d:[0-5]\d\s(?:AM|PM)|(?:[01]?\d|2[0-3]):[0-5]\d:[0-5]\d)`)

// DefaultFormats returns the timestamp formats found in standard lamp test
// files. Dates are always day first.
func DefaultFormats() []*TimestampFormat {
	return []*TimestampFormat{
		{
			Name:     "Day-first, 2-digit year, 24-hour",
			Layout:   "2.1.06 15:04:05",
			Examples: []string{"18.03.21 10:15:00", "5/3/21 9:15:00"},
		},
		{
			Name:     "Day-first, 2-digit year, 12-hour",
			Layout:   "2.1.06 3:04:05 PM",
			Examples: []string{"18.03.21 10:15:00 AM", "5/3/21 9:15:00 PM"},
		},
		{
			Name:     "Day-first, 4-digit year, 24-hour",
			Layout:   "2.1.2006 15:04:05",
			Examples: []string{"18.03.2021 10:15:00"},
		},
		{
			Name:     "Day-first, 4-digit year, 12-hour",
			Layout:   "2.1.2006 3:04:05 PM",
			Examples: []string{"18.03.2021 10:15:00 PM"},
		},
	}
}

// FindTimestamp returns the first timestamp on line, or "" if there is none.
func FindTimestamp(line string) string {
	return timestampPattern.FindString(line)
}
