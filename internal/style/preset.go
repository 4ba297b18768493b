// Package style holds the named prompt personas a run can select.
package style

import "strings"

// Preset is an immutable named persona injected into the translation
// prompt. Selected once per run and never mutated.
type Preset struct {
	Name        string
	Instruction string
}

var (
	// Default matches the plain-text persona of the original tool.
	Default = Preset{
		Name:        "default",
		Instruction: "You are a professional translator.",
	}

	// Subtitle adds dialogue-specific guidance for timed text.
	Subtitle = Preset{
		Name: "subtitle",
		Instruction: "You are a professional subtitle translator. " +
			"Keep each line short enough to read on screen and preserve the tone of spoken dialogue.",
	}

	// Novel is tuned for literary prose where register and nuance matter.
	Novel = Preset{
		Name: "novel",
		Instruction: "You are a professional fiction translator. " +
			"Translate with the appropriate tone and nuance, ensuring the context of each scene is conveyed accurately.",
	}
)

var presets = map[string]Preset{
	Default.Name:  Default,
	Subtitle.Name: Subtitle,
	Novel.Name:    Novel,
}

// Lookup returns the preset registered under name.
func Lookup(name string) (Preset, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names lists the registered preset names.
func Names() []string {
	return []string{Default.Name, Subtitle.Name, Novel.Name}
}
