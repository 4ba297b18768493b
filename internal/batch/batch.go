// Package batch groups document units into bounded, order-preserving
// batches for context-aware translation.
package batch

import (
	"unicode/utf8"

	"github.com/subgemma/subtrans/internal/document"
)

// Batch is a contiguous sub-sequence of a document's units. Start is the
// offset of the first unit within the document.
type Batch struct {
	Start int
	Units []document.Unit
}

// Texts returns the source text of the batch's units in order.
func (b Batch) Texts() []string {
	texts := make([]string, len(b.Units))
	for i, u := range b.Units {
		texts[i] = u.Text
	}
	return texts
}

// Split packs units greedily into batches of at most maxUnits units and,
// when maxChars > 0, at most maxChars characters of source text. Units are
// never reordered, never split, and never dropped: a single unit larger
// than maxChars gets a batch of its own.
func Split(units []document.Unit, maxUnits, maxChars int) []Batch {
	if maxUnits <= 0 {
		maxUnits = 1
	}

	var batches []Batch
	current := Batch{Start: 0}
	chars := 0

	for i, unit := range units {
		size := utf8.RuneCountInString(unit.Text)
		full := len(current.Units) >= maxUnits ||
			(maxChars > 0 && len(current.Units) > 0 && chars+size > maxChars)
		if full {
			batches = append(batches, current)
			current = Batch{Start: i}
			chars = 0
		}
		current.Units = append(current.Units, unit)
		chars += size
	}
	if len(current.Units) > 0 {
		batches = append(batches, current)
	}

	return batches
}

// Flatten concatenates the batches' units back into document order.
func Flatten(batches []Batch) []document.Unit {
	var units []document.Unit
	for _, b := range batches {
		units = append(units, b.Units...)
	}
	return units
}
