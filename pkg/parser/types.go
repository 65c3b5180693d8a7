// Package parser recognises standard lamp test entries in instrument log text.
package parser

import "fmt"

// BlocksPerEntry is the number of test blocks every entry carries.
const BlocksPerEntry = 3

// ValuesPerBlock is the number of numeric tokens following a block label.
const ValuesPerBlock = 7

// Entry is one recognised standard lamp test: a timestamp line, a header
// line and three labelled test blocks.
type Entry struct {
	// Timestamp is the timestamp text exactly as found in the log.
	Timestamp string

	// Lamp is the 3-character standard lamp name.
	Lamp string

	// Temperature is the instrument temperature.
	Temperature float64

	// Blocks holds the three test blocks in file order.
	Blocks [BlocksPerEntry]Block

	// Line is the 1-based line number of the timestamp line.
	Line int
}

// Labels returns the block labels in file order.
func (e *Entry) Labels() [BlocksPerEntry]string {
	var labels [BlocksPerEntry]string
	for i, b := range e.Blocks {
		labels[i] = b.Label
	}
	return labels
}

// Block is a single "Test <label>" block.
type Block struct {
	// Label is the one-character test label (e.g. "A").
	Label string

	// Values holds value1, value2, value3, mean, N, N_ref and dN in that order.
	Values [ValuesPerBlock]float64
}

// Field names the part of an entry a Diagnostic refers to.
type Field string

const (
	FieldTimestamp   Field = "timestamp"
	FieldHeader      Field = "header"
	FieldLamp        Field = "lamp"
	FieldTemperature Field = "temperature"
	FieldBlock       Field = "block"
	FieldLabel       Field = "label"
	FieldValue       Field = "value"
)

// Diagnostic describes a candidate entry that was rejected.
type Diagnostic struct {
	// Line is the 1-based line where the offending token was found.
	Line int

	// Field is the part of the entry that failed.
	Field Field

	// Reason is a human-readable explanation.
	Reason string
}

// Error implements error so a Diagnostic can be wrapped and reported directly.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Field, d.Reason)
}
