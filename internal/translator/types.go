package translator

import (
	"context"
	"fmt"

	"github.com/subgemma/subtrans/internal/style"
)

// Translator turns a batch of source texts into exactly one translated
// string per input, in order. Implementations own mismatch recovery; an
// accepted result always has len(result) == len(texts).
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string) ([]string, error)
}

// Config is the per-run translation configuration. Immutable once built.
type Config struct {
	SourceLanguage string
	TargetLanguage string
	Style          style.Preset
}

// AlignmentError reports that a model response could not be mapped back
// onto the batch's units. Recoverable: the caller retries at a smaller
// batch size.
type AlignmentError struct {
	Expected int
	Got      int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d lines, got %d", e.Expected, e.Got)
}

// languageCodes mirrors the label-to-code table of common languages the
// prompt uses to pin down the language pair for the model.
var languageCodes = map[string]string{
	"English":             "en",
	"Traditional Chinese": "zh-Hant",
	"Simplified Chinese":  "zh-Hans",
	"Japanese":            "ja",
	"Korean":              "ko",
	"French":              "fr",
	"German":              "de",
	"Spanish":             "es",
}

// LanguageCode maps a language label to its ISO code, empty if unknown.
func LanguageCode(label string) string {
	return languageCodes[label]
}
