package macro

import (
	"strings"
	"testing"
	"time"

	"fable/pkg/schema"
)

func TestExpandLeavesPlainTextUntouched(t *testing.T) {
	in := "Nothing to see here. {single} braces {{unknown_variable}} stay."
	if got := Expand(in, Context{}); got != in {
		t.Fatalf("expected text unchanged, got: %q", got)
	}
}

func TestExpandNames(t *testing.T) {
	ctx := Context{
		Character: schema.Persona{Name: "Mira", Personality: "curious"},
		User:      schema.Persona{Name: "Sam"},
		Chapter:   schema.Chapter{Title: "The Harbor"},
	}
	got := Expand("{{char}} meets {{user}} in {{chapter.title}}. {{character.personality}}.", ctx)
	want := "Mira meets Sam in The Harbor. curious."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExpandMissingFieldsPassThrough(t *testing.T) {
	got := Expand("{{char}} and {{user}}", Context{Character: schema.Persona{Name: "Mira"}})
	if got != "Mira and {{user}}" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandPersonalityIsNormalizedFirst(t *testing.T) {
	ctx := Context{
		Character: schema.Persona{Name: "Mira", Personality: "a fan of {{user}}"},
		User:      schema.Persona{Name: "Sam"},
	}
	got := Expand("{{character.personality}}", ctx)
	if got != "a fan of Sam" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandExtraMap(t *testing.T) {
	ctx := Context{Extra: map[string]string{"lorebook_top": "The moon is full.", "a+b": "escaped"}}
	got := Expand("{{lorebook_top}} / {{a+b}}", ctx)
	if got != "The moon is full. / escaped" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandRandomChoice(t *testing.T) {
	got := Expand("{{red|green|blue}}", Context{})
	switch got {
	case "red", "green", "blue":
	default:
		t.Fatalf("expected one option, got %q", got)
	}
}

func TestExpandMultiSelect(t *testing.T) {
	got := Expand("{{2$$a|b|c}}", Context{})
	parts := strings.Split(got, ", ")
	if len(parts) != 2 {
		t.Fatalf("expected two options, got %q", got)
	}
	seen := map[string]bool{}
	for _, p := range parts {
		if p != "a" && p != "b" && p != "c" {
			t.Fatalf("unexpected option %q in %q", p, got)
		}
		if seen[p] {
			t.Fatalf("duplicate option in %q", got)
		}
		seen[p] = true
	}
}

func TestExpandRoll(t *testing.T) {
	if got := Expand("{{roll:1d1}}", Context{}); got != "1" {
		t.Fatalf("1d1 must always roll 1, got %q", got)
	}
	if got := Expand("{{roll:2d6+3}}", Context{}); got == "{{roll:2d6+3}}" {
		t.Fatalf("valid roll left unexpanded")
	} else {
		for _, r := range got {
			if r < '0' || r > '9' {
				t.Fatalf("roll result not numeric: %q", got)
			}
		}
	}
}

func TestExpandRollInvalidNotation(t *testing.T) {
	for _, in := range []string{"{{roll:0d6}}", "{{roll:101d6}}", "{{roll:1d1001}}", "{{roll:xdy}}"} {
		if got := Expand(in, Context{}); got != in {
			t.Fatalf("invalid roll %q should stay untouched, got %q", in, got)
		}
	}
}

func TestExpandDates(t *testing.T) {
	ctx := Context{Now: func() time.Time {
		return time.Date(2024, time.March, 5, 14, 30, 45, 0, time.UTC)
	}}
	cases := map[string]string{
		"{{time}}":    "2:30 PM",
		"{{date}}":    "March 5, 2024",
		"{{weekday}}": "Tuesday",
		"{{isotime}}": "14:30:45",
		"{{isodate}}": "2024-03-05",
	}
	for in, want := range cases {
		if got := Expand(in, ctx); got != want {
			t.Fatalf("%s: got %q, want %q", in, got, want)
		}
	}
}

func TestExpandStripsComments(t *testing.T) {
	if got := Expand("A {{// note}} B", Context{}); got != "A  B" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandCensorship(t *testing.T) {
	ctx := Context{CensorWords: []string{"secret"}}
	if got := Expand("This is secret info", ctx); got != "This is *** info" {
		t.Fatalf("got %q", got)
	}
	ctx.CensorMask = "[redacted]"
	if got := Expand("A SECRET here", ctx); got != "A [redacted] here" {
		t.Fatalf("censorship should be case-insensitive, got %q", got)
	}
}
