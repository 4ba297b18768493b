package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Format identifies the on-disk representation of a document.
type Format string

const (
	FormatSRT  Format = "srt"
	FormatText Format = "txt"
)

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// FormatForPath maps a file path to a supported format.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, true
	case ".txt":
		return FormatText, true
	default:
		return "", false
	}
}

// Unit is one ordered translatable element: a subtitle cue or a text line.
// Timestamps are zero for plain-text units. Only TranslatedText is written
// by the pipeline; Index, StartTime, EndTime and Text stay untouched.
type Unit struct {
	Index          int
	StartTime      time.Duration
	EndTime        time.Duration
	Text           string
	TranslatedText string
}

// Output returns the translated text, falling back to the original when
// no translation was produced.
func (u Unit) Output() string {
	if u.TranslatedText != "" {
		return u.TranslatedText
	}
	return u.Text
}

// Document is an ordered sequence of units parsed from one source file.
type Document struct {
	Units    []Unit
	Format   Format
	Language language.Tag
}

// Texts returns the source text of every unit in order.
func (d *Document) Texts() []string {
	texts := make([]string, len(d.Units))
	for i, u := range d.Units {
		texts[i] = u.Text
	}
	return texts
}

// ParseError reports malformed input: bad cue syntax, an unparsable index
// or timestamp, or undecodable bytes.
type ParseError struct {
	Format Format
	Line   int
	Msg    string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %s", e.Format, e.Line, e.Msg)
	}
	return fmt.Sprintf("parse %s: %s", e.Format, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parse decodes raw file bytes into a Document for the given format.
func Parse(data []byte, format Format) (*Document, error) {
	switch format {
	case FormatSRT:
		return parseSRT(data)
	case FormatText:
		return parseText(data)
	default:
		return nil, &ParseError{Format: format, Msg: "unsupported format"}
	}
}

// Serialize is the structural inverse of Parse. Indices, timestamps and
// ordering round-trip unchanged; the text payload is each unit's Output.
func Serialize(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	switch doc.Format {
	case FormatSRT:
		return serializeSRT(doc), nil
	case FormatText:
		return serializeText(doc), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", doc.Format)
	}
}
