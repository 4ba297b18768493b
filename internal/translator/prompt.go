package translator

import (
	"fmt"
	"strings"
)

const (
	// lineBreaker separates units in the prompt and the expected response.
	// Chosen so it cannot occur in ordinary subtitle or prose text.
	lineBreaker = "@@@"
	// inlineBreaker protects newlines inside a single unit so the model
	// does not mistake them for unit boundaries.
	inlineBreaker = "[[br]]"
)

// buildSystemPrompt assembles the persona, the language pair and the
// output contract for a batch of n units.
func (t *LLMTranslator) buildSystemPrompt(n int) string {
	var prompt strings.Builder

	src := t.cfg.SourceLanguage
	tgt := t.cfg.TargetLanguage

	persona := t.cfg.Style.Instruction
	if persona == "" {
		persona = "You are a professional translator."
	}
	prompt.WriteString(persona)
	prompt.WriteString("\n\n")

	if code := LanguageCode(src); code != "" {
		src = fmt.Sprintf("%s (%s)", src, code)
	}
	if code := LanguageCode(tgt); code != "" {
		tgt = fmt.Sprintf("%s (%s)", tgt, code)
	}
	prompt.WriteString(fmt.Sprintf(
		"Translate the following text from %s to %s. "+
			"Convey the meaning and nuances of the original while adhering to %s grammar, vocabulary, and cultural sensitivities.\n",
		src, tgt, t.cfg.TargetLanguage))

	prompt.WriteString("\n=== INPUT FORMAT ===\n")
	prompt.WriteString(fmt.Sprintf("The input contains %d numbered lines separated by %s. Each line starts with its index, like \"1. \".\n", n, lineBreaker))
	prompt.WriteString(fmt.Sprintf("%s markers stand for line breaks inside a single entry; keep them in place.\n", inlineBreaker))

	prompt.WriteString("\n=== OUTPUT FORMAT ===\n")
	prompt.WriteString(fmt.Sprintf("Return exactly %d translated lines separated by %s, each keeping its original index prefix.\n", n, lineBreaker))
	prompt.WriteString("Never merge or split lines, and do not include any explanations, notes, or additional text.\n")

	return prompt.String()
}

// buildUserMessage numbers each unit and joins them with the separator
// token so the model is told exactly how many lines to return.
func buildUserMessage(texts []string) string {
	lines := make([]string, len(texts))
	for i, text := range texts {
		protected := strings.ReplaceAll(text, "\n", inlineBreaker)
		lines[i] = fmt.Sprintf("%d. %s", i+1, protected)
	}
	return strings.Join(lines, "\n"+lineBreaker+"\n")
}

// restoreInlineBreaks converts protected markers back into real newlines.
func restoreInlineBreaks(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, inlineBreaker, "\n"))
}
