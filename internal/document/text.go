package document

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// parseText splits line-delimited plain text into units. Empty lines are
// kept as empty units; dropping them would desynchronize index alignment
// between the source and the translated output.
func parseText(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &ParseError{Format: FormatText, Msg: "file is not valid UTF-8"}
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")

	var units []Unit
	if content != "" || len(data) > 0 {
		for i, line := range strings.Split(content, "\n") {
			units = append(units, Unit{Index: i + 1, Text: line})
		}
	}

	return &Document{
		Units:    units,
		Format:   FormatText,
		Language: detectLanguage(units),
	}, nil
}

func serializeText(doc *Document) []byte {
	var buf bytes.Buffer
	for _, unit := range doc.Units {
		buf.WriteString(unit.Output())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
