// Package zhconv applies forced script normalization to translated text.
//
// Models asked for Traditional Chinese frequently emit Simplified
// characters anyway. Instead of trusting the prompt, the pipeline runs a
// deterministic OpenCC s2twp (Simplified to Taiwan-standard Traditional,
// with common phrase substitutions) pass over the translated text after
// realignment. The conversion is idempotent, so already-correct text
// passes through unchanged.
package zhconv

import (
	"fmt"
	"strings"

	"github.com/longbridgeapp/opencc"
)

// TraditionalChineseLabel is the fixed language label that activates
// normalization. Matching is by label, not by content heuristics.
const TraditionalChineseLabel = "Traditional Chinese"

const conversion = "s2twp"

// Normalizer converts translated text to Taiwan-standard Traditional
// Chinese when the run's target language carries the recognized label.
// The zero value is an inactive normalizer that returns text unchanged.
type Normalizer struct {
	converter *opencc.OpenCC
}

// New builds a Normalizer for the given target-language label. For any
// label not denoting Traditional Chinese the returned normalizer is a
// no-op.
func New(targetLanguage string) (*Normalizer, error) {
	if !Applies(targetLanguage) {
		return &Normalizer{}, nil
	}

	converter, err := opencc.New(conversion)
	if err != nil {
		return nil, fmt.Errorf("init opencc %s: %w", conversion, err)
	}
	return &Normalizer{converter: converter}, nil
}

// Applies reports whether the label activates forced normalization.
func Applies(targetLanguage string) bool {
	return strings.Contains(targetLanguage, TraditionalChineseLabel)
}

// Active reports whether this normalizer will change text.
func (n *Normalizer) Active() bool {
	return n != nil && n.converter != nil
}

// Normalize converts text to Taiwan-standard Traditional Chinese. It
// operates on the provided string alone and never touches timestamps or
// other metadata. Inactive normalizers and conversion failures return the
// input unchanged; dropping translated content is never acceptable here.
func (n *Normalizer) Normalize(text string) string {
	if !n.Active() || text == "" {
		return text
	}
	converted, err := n.converter.Convert(text)
	if err != nil {
		return text
	}
	return converted
}
