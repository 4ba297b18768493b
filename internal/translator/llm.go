package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/subgemma/subtrans/internal/llm"
	"github.com/subgemma/subtrans/pkg/log"
)

// LLMTranslator translates batches through a chat endpoint and repairs
// count mismatches with a deterministic retry ladder: halve the batch and
// retry, bottoming out at single-unit calls that cannot misalign.
type LLMTranslator struct {
	client llm.ChatClient
	cfg    Config
}

// New creates a translator bound to one run's language pair and style.
func New(client llm.ChatClient, cfg Config) *LLMTranslator {
	return &LLMTranslator{
		client: client,
		cfg:    cfg,
	}
}

// TranslateBatch translates texts and guarantees one output per input.
func (t *LLMTranslator) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return t.translateSpan(ctx, texts, len(texts))
}

// translateSpan walks texts in chunks of size units, recursing with a
// halved size whenever a chunk's response cannot be realigned.
func (t *LLMTranslator) translateSpan(ctx context.Context, texts []string, size int) ([]string, error) {
	if size < 1 {
		size = 1
	}

	var out []string
	for i := 0; i < len(texts); i += size {
		end := min(i+size, len(texts))
		chunk := texts[i:end]

		// nothing to ask the model when the whole chunk is blank
		if allBlank(chunk) {
			out = append(out, chunk...)
			continue
		}

		translated, err := t.translateOnce(ctx, chunk)
		if err != nil {
			var alignErr *AlignmentError
			if errors.As(err, &alignErr) && size > 1 {
				log.Warn("count mismatch for lines %d-%d (want %d, got %d), retrying with batch size %d",
					i+1, end, alignErr.Expected, alignErr.Got, size/2)
				translated, err = t.translateSpan(ctx, chunk, size/2)
			}
			if err != nil {
				return nil, fmt.Errorf("batch translation failed for lines %d-%d: %w", i+1, end, err)
			}
		}
		out = append(out, translated...)
	}

	return out, nil
}

// translateOnce performs a single prompt round-trip plus realignment.
func (t *LLMTranslator) translateOnce(ctx context.Context, texts []string) ([]string, error) {
	systemPrompt := t.buildSystemPrompt(len(texts))
	userMessage := buildUserMessage(texts)

	raw, err := t.client.Chat(ctx, systemPrompt, userMessage)
	if err != nil {
		return nil, err
	}

	aligned, err := realign(raw, texts)
	if err != nil {
		return nil, err
	}
	for i := range aligned {
		aligned[i] = restoreInlineBreaks(aligned[i])
	}
	return aligned, nil
}

func allBlank(texts []string) bool {
	for _, text := range texts {
		if strings.TrimSpace(text) != "" {
			return false
		}
	}
	return true
}
