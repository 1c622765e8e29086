package prompt

import (
	"context"
	"slices"
	"strings"

	"fable/pkg/lorebook"
	"fable/pkg/macro"
	"fable/pkg/schema"
	"fable/pkg/tokens"
)

// Config is everything one FormatPrompt call consumes. The formatter works
// on its own copies; caller-owned slices and records are never mutated.
type Config struct {
	Messages  []schema.StoredMessage
	UserInput string

	Template  schema.FormatTemplate
	Inference *schema.InferenceTemplate

	SystemOverride string

	Character      schema.Persona
	User           schema.Persona
	Chapter        schema.Chapter
	CharacterNames map[string]string

	CharacterLorebook string
	UserLorebook      string
	LorebookBudget    int

	MaxContextTokens  int
	MaxResponseTokens int
	MaxDepth          int

	Extra       map[string]string
	CensorWords []string
	CensorMask  string
}

// Result is the assembled prompt. Prompt and StopStrings are only set when
// an inference template rendered the turns for a completion-style engine.
type Result struct {
	Turns        []schema.Turn `json:"turns"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	Prompt       string        `json:"prompt,omitempty"`
	StopStrings  []string      `json:"stop_strings,omitempty"`
}

// Formatter sequences the pipeline: history assembly, prompt injection,
// lorebook resolution, placeholder expansion, budget trimming, and finally
// completion-style rendering when the engine needs it.
type Formatter struct {
	lore    *lorebook.Resolver
	counter tokens.Counter
}

func NewFormatter(library lorebook.Library, counter tokens.Counter) *Formatter {
	return &Formatter{
		lore:    lorebook.NewResolver(library, counter),
		counter: counter,
	}
}

func (f *Formatter) FormatPrompt(ctx context.Context, cfg Config) (*Result, error) {
	messages := slices.Clone(cfg.Messages)
	slices.SortStableFunc(messages, func(a, b schema.StoredMessage) int {
		return a.Position - b.Position
	})

	turns := assembleHistory(historyInput{
		messages:        messages,
		userInput:       cfg.UserInput,
		policy:          cfg.Template.PrefixMessages,
		summaryTemplate: cfg.Template.SummaryTemplate,
		userName:        cfg.User.Name,
		characterName:   cfg.Character.Name,
		names:           cfg.CharacterNames,
	})

	prompts := slices.Clone(cfg.Template.CustomPrompts)
	prompts = append(prompts, resolveScripted(messages)...)
	turns = injectTurns(turns, prompts)

	lore := &lorebook.Result{}
	if cfg.LorebookBudget > 0 {
		books := append([]string{cfg.CharacterLorebook, cfg.UserLorebook}, cfg.Template.Lorebooks...)
		var err error
		lore, err = f.lore.Resolve(ctx, books, cfg.LorebookBudget, turns, cfg.Template.Separator)
		if err != nil {
			return nil, err
		}
		turns = mergeLorebookMessages(turns, lore.Messages)
	}

	sections := injectSections(cfg.Template.Sections, prompts, cfg.SystemOverride)
	systemPrompt := buildSystemPrompt(sections, cfg, lore)

	mctx := macro.Context{
		Character:   cfg.Character,
		User:        cfg.User,
		Chapter:     cfg.Chapter,
		Extra:       loreExtra(cfg.Extra, lore),
		CensorWords: cfg.CensorWords,
		CensorMask:  cfg.CensorMask,
	}
	systemPrompt = macro.Expand(systemPrompt, mctx)
	for i := range turns {
		turns[i].Text = macro.Expand(turns[i].Text, mctx)
	}

	if cfg.Template.MergeConsecutive {
		turns = mergeConsecutive(turns, cfg.Template.Separator)
	}

	turns, err := trimTurns(turns, systemPrompt, f.counter,
		cfg.MaxContextTokens, cfg.MaxResponseTokens, cfg.MaxDepth)
	if err != nil {
		return nil, err
	}

	result := &Result{Turns: turns, SystemPrompt: systemPrompt}
	if cfg.Inference != nil {
		rendered := renderCompletion(turns, systemPrompt, *cfg.Inference)
		result.Prompt = rendered.Prompt
		result.StopStrings = rendered.StopStrings
	}
	return result, nil
}

// buildSystemPrompt resolves each section to text and joins the non-empty
// ones. Empty sections are dropped, lorebook sections included, so a chat
// with nothing triggered carries no stray separators.
func buildSystemPrompt(sections []schema.TemplateSection, cfg Config, lore *lorebook.Result) string {
	separator := cfg.Template.Separator
	if separator == "" {
		separator = "\n\n"
	}
	var parts []string
	for _, section := range sections {
		content := section.Content
		switch section.Type {
		case schema.SectionCharacterContext:
			if content == "" {
				content = cfg.Character.Personality
			}
		case schema.SectionUserContext:
			if content == "" {
				content = cfg.User.Personality
			}
		case schema.SectionChapterContext:
			if content == "" {
				content = cfg.Chapter.Scenario
			}
		case schema.SectionLorebookTop:
			content = lore.Top
		case schema.SectionLorebookBottom:
			content = lore.Bottom
		}
		if content == "" {
			continue
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, separator)
}

// loreExtra exposes the resolved lorebook strings as placeholder values
// alongside the caller's extra map.
func loreExtra(extra map[string]string, lore *lorebook.Result) map[string]string {
	out := make(map[string]string, len(extra)+2)
	for k, v := range extra {
		out[k] = v
	}
	out["lorebook_top"] = lore.Top
	out["lorebook_bottom"] = lore.Bottom
	return out
}

// mergeConsecutive collapses adjacent same-role turns into one, joined by
// the template separator.
func mergeConsecutive(turns []schema.Turn, separator string) []schema.Turn {
	if separator == "" {
		separator = "\n"
	}
	out := make([]schema.Turn, 0, len(turns))
	for _, turn := range turns {
		if n := len(out); n > 0 && out[n-1].Role == turn.Role {
			out[n-1].Text += separator + turn.Text
			continue
		}
		out = append(out, turn)
	}
	return out
}
