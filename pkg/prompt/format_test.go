package prompt

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"fable/pkg/schema"
)

type fakeLibrary map[string]*schema.Lorebook

func (l fakeLibrary) Lorebook(_ context.Context, id string) (*schema.Lorebook, error) {
	if book, ok := l[id]; ok {
		return book, nil
	}
	return nil, fmt.Errorf("lorebook %q not found", id)
}

func testTemplate() schema.FormatTemplate {
	return schema.FormatTemplate{
		Sections: []schema.TemplateSection{
			{Type: schema.SectionContext, Content: "You are {{char}}."},
			{Type: schema.SectionLorebookTop},
			{Type: schema.SectionCharacterContext},
		},
	}
}

func TestFormatPromptEndToEnd(t *testing.T) {
	library := fakeLibrary{
		"world": {
			ID: "world",
			Entries: []schema.LorebookEntry{
				{
					ID: "docks", Keywords: []string{"docks"}, Content: "The docks smell of brine.",
					InsertionType: schema.InsertLorebookTop, Enabled: true,
				},
			},
		},
	}
	f := NewFormatter(library, runeCounter{})

	cfg := Config{
		Messages: []schema.StoredMessage{
			msg("1", 1, schema.MessageUser, "let's walk to the docks"),
			msg("2", 2, schema.MessageCharacter, "lead the way"),
		},
		UserInput:         "after you",
		Template:          testTemplate(),
		Character:         schema.Persona{Name: "Mira", Personality: "sharp-tongued"},
		User:              schema.Persona{Name: "Sam"},
		CharacterLorebook: "world",
		LorebookBudget:    100,
		MaxContextTokens:  4000,
		MaxResponseTokens: 100,
	}

	result, err := f.FormatPrompt(context.Background(), cfg)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	if len(result.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %+v", result.Turns)
	}
	if result.Turns[2].Text != "after you" {
		t.Fatalf("live input missing: %+v", result.Turns)
	}
	if !strings.Contains(result.SystemPrompt, "You are Mira.") {
		t.Fatalf("macro expansion missing in system prompt: %q", result.SystemPrompt)
	}
	if !strings.Contains(result.SystemPrompt, "The docks smell of brine.") {
		t.Fatalf("triggered lorebook entry missing: %q", result.SystemPrompt)
	}
	if !strings.Contains(result.SystemPrompt, "sharp-tongued") {
		t.Fatalf("character context missing: %q", result.SystemPrompt)
	}
	if result.Prompt != "" || result.StopStrings != nil {
		t.Fatalf("chat-style result must not render a literal prompt: %+v", result)
	}
}

func TestFormatPromptDoesNotMutateCaller(t *testing.T) {
	library := fakeLibrary{}
	f := NewFormatter(library, runeCounter{})

	messages := []schema.StoredMessage{
		msg("b", 2, schema.MessageUser, "second"),
		msg("a", 1, schema.MessageUser, "first"),
	}
	cfg := Config{
		Messages:          messages,
		Template:          testTemplate(),
		MaxContextTokens:  4000,
		MaxResponseTokens: 100,
	}
	if _, err := f.FormatPrompt(context.Background(), cfg); err != nil {
		t.Fatalf("format: %v", err)
	}
	if messages[0].ID != "b" || messages[1].ID != "a" {
		t.Fatalf("caller-owned slice was reordered: %+v", messages)
	}
}

func TestFormatPromptCompletionRendering(t *testing.T) {
	f := NewFormatter(fakeLibrary{}, runeCounter{})
	inf := alpacaStyle

	cfg := Config{
		Messages: []schema.StoredMessage{
			msg("1", 1, schema.MessageUser, "hello"),
		},
		Template:          schema.FormatTemplate{},
		Inference:         &inf,
		MaxContextTokens:  4000,
		MaxResponseTokens: 100,
	}
	result, err := f.FormatPrompt(context.Background(), cfg)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if result.Prompt == "" {
		t.Fatalf("completion-style engine needs a rendered prompt")
	}
	if len(result.StopStrings) == 0 {
		t.Fatalf("expected synthesized stop strings")
	}
}

func TestFormatPromptMergeConsecutive(t *testing.T) {
	f := NewFormatter(fakeLibrary{}, runeCounter{})
	tpl := schema.FormatTemplate{MergeConsecutive: true, Separator: "\n"}

	cfg := Config{
		Messages: []schema.StoredMessage{
			msg("1", 1, schema.MessageUser, "one"),
			msg("2", 2, schema.MessageUser, "two"),
			msg("3", 3, schema.MessageCharacter, "three"),
		},
		Template:          tpl,
		MaxContextTokens:  4000,
		MaxResponseTokens: 100,
	}
	result, err := f.FormatPrompt(context.Background(), cfg)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if len(result.Turns) != 2 {
		t.Fatalf("expected merged turns, got %+v", result.Turns)
	}
	if result.Turns[0].Text != "one\ntwo" {
		t.Fatalf("got %q", result.Turns[0].Text)
	}
}
