package translator

import (
	"regexp"
	"strconv"
	"strings"
)

// indexedLineRE matches a line echoing the ordinal prefix it was given in
// the prompt, e.g. "3. text", "3) text" or "3：text".
var indexedLineRE = regexp.MustCompile(`^\s*(\d+)\s*[.)、:：．]\s*(.*)$`)

// realign maps a free-form model response back onto the batch's units.
//
// When the model echoed the per-line indices, they are authoritative: a
// sparse index map is rebuilt, commentary lines are dropped, missing
// indices fall back to the source text unchanged, and indices beyond the
// batch are discarded as noise. Without indices the line count must match
// exactly; surplus lines beyond the expected count are discarded, a
// shortfall is an AlignmentError. A batch of one cannot misalign: it takes
// the first returned line, or the source text when the response is empty.
func realign(raw string, source []string) ([]string, error) {
	indexed := make(map[int]string)
	hasIndexed := false
	var plain []string

	for _, part := range splitResponse(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if m := indexedLineRE.FindStringSubmatch(part); m != nil {
			hasIndexed = true
			idx, _ := strconv.Atoi(m[1])
			if idx >= 1 && idx <= len(source) {
				if _, dup := indexed[idx]; !dup {
					indexed[idx] = strings.TrimSpace(m[2])
				}
			}
			continue
		}
		plain = append(plain, part)
	}

	if hasIndexed {
		out := make([]string, len(source))
		for i := range source {
			if text, ok := indexed[i+1]; ok && text != "" {
				out[i] = text
			} else {
				out[i] = source[i]
			}
		}
		return out, nil
	}

	switch {
	case len(plain) == len(source):
		return plain, nil
	case len(plain) > len(source):
		return plain[:len(source)], nil
	case len(source) == 1:
		if len(plain) > 0 {
			return []string{plain[0]}, nil
		}
		return []string{source[0]}, nil
	default:
		return nil, &AlignmentError{Expected: len(source), Got: len(plain)}
	}
}

// splitResponse breaks the raw response on the separator token, falling
// back to plain newlines when the model dropped the separators.
func splitResponse(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.Contains(raw, lineBreaker) {
		return strings.Split(raw, lineBreaker)
	}
	return strings.Split(raw, "\n")
}
