package document

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// detectLanguage picks the dominant language across units by majority vote.
// Informational only; the run configuration decides what the model is told.
func detectLanguage(units []Unit) language.Tag {
	if len(units) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)
	for _, unit := range units {
		if unit.Text == "" {
			continue
		}
		lang := whatlanggo.DetectLang(unit.Text).Iso6391()
		langMap[lang]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}

	return language.All.Make(topLang)
}
