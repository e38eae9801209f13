package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/inkpress/inkpress/internal/errs"
)

// DraftRequest is the caller's input for draft generation.
type DraftRequest struct {
	Topic    string
	Keywords string
	Tone     string
}

// Draft is an unsaved generation result awaiting user review. Nothing is
// persisted here; the caller accepts, edits or discards it.
type Draft struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// Orchestrator coordinates the generation calls that turn a topic into a
// draft: title and content are requested concurrently, then the meta
// description is requested from the generated title.
type Orchestrator struct {
	generator        TextGenerator
	maxContentTokens int
}

func NewOrchestrator(generator TextGenerator, maxContentTokens int) *Orchestrator {
	if maxContentTokens <= 0 {
		maxContentTokens = DefaultContentTokens
	}
	return &Orchestrator{
		generator:        generator,
		maxContentTokens: maxContentTokens,
	}
}

// GenerateDraft produces a complete draft for the topic. Both concurrent
// legs must succeed; if either fails the whole call fails and the
// description request is never issued. No partial draft is ever returned
// and no retries happen. The caller bounds the whole orchestration with a
// context deadline; an abandoned in-flight request runs to completion and
// its result is discarded.
func (o *Orchestrator) GenerateDraft(ctx context.Context, req DraftRequest) (*Draft, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, errs.Validationf("topic is required")
	}

	tone := req.Tone
	if tone == "" {
		tone = "informative"
	}

	type result struct {
		title bool
		text  string
		err   error
	}

	// Buffered so a leg finishing after we bail out does not leak.
	results := make(chan result, 2)

	go func() {
		text, err := o.generator.GenerateText(ctx, BuildTitlePrompt(req.Topic), GenerateOptions{
			Temperature:     Temperature,
			MaxOutputTokens: TitleMaxTokens,
		})
		results <- result{title: true, text: text, err: err}
	}()

	go func() {
		text, err := o.generator.GenerateText(ctx, BuildContentPrompt(req.Topic, req.Keywords, tone), GenerateOptions{
			Temperature:     Temperature,
			MaxOutputTokens: o.maxContentTokens,
		})
		results <- result{text: text, err: err}
	}()

	var title, content string
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err != nil {
			return nil, wrapGenerationErr(ctx, res.err)
		}
		if res.title {
			title = strings.TrimSpace(res.text)
		} else {
			content = res.text
		}
	}

	description, err := o.generator.GenerateText(ctx, BuildDescriptionPrompt(req.Topic, title), GenerateOptions{
		Temperature:     Temperature,
		MaxOutputTokens: DescriptionMaxTokens,
	})
	if err != nil {
		return nil, wrapGenerationErr(ctx, err)
	}

	draft := &Draft{
		Title:       clamp(title, maxTitleLength),
		Content:     content,
		Description: clamp(strings.TrimSpace(description), maxDescriptionLength),
		Keywords:    req.Keywords,
	}

	return draft, nil
}

func wrapGenerationErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("generation exceeded deadline: %w", errs.ErrTimeout)
	}
	return errs.Generationf("generation request failed: %v", err)
}

func clamp(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multi-byte rune.
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + "..."
}
