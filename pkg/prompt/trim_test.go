package prompt

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"fable/pkg/schema"
	"fable/pkg/tokens"
)

// runeCounter charges one token per rune in both modes, making budgets
// exact and deterministic.
type runeCounter struct{}

func (runeCounter) Count(text string, _ tokens.Mode) (int, error) {
	return utf8.RuneCountInString(text), nil
}

func userTurns(texts ...string) []schema.Turn {
	turns := make([]schema.Turn, len(texts))
	for i, text := range texts {
		turns[i] = schema.Turn{Role: schema.SpeakerUser, Text: text}
	}
	return turns
}

func TestTrimKeepsEverythingUnderBudget(t *testing.T) {
	turns := userTurns("aaaa", "bbbb", "cccc")
	got, err := trimTurns(turns, "ss", runeCounter{}, 100, 10, 0)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected all turns kept, got %d", len(got))
	}
}

func TestTrimRecencyPreference(t *testing.T) {
	turns := userTurns("t1xx", "t2xx", "t3xx", "t4xx", "t5xx")
	// budget = 20 - 2 - 2 = 16 -> newest four turns of cost 4.
	got, err := trimTurns(turns, "ss", runeCounter{}, 20, 2, 0)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 turns, got %d: %+v", len(got), got)
	}
	for i, want := range []string{"t2xx", "t3xx", "t4xx", "t5xx"} {
		if got[i].Text != want {
			t.Fatalf("index %d: got %q, want %q", i, got[i].Text, want)
		}
	}
}

func TestTrimBudgetMonotonicity(t *testing.T) {
	turns := userTurns("aaaaaaa", "bbb", "cccccc", "dd", "eeeeeeeee")
	const maxContext, maxResponse = 30, 5

	got, err := trimTurns(turns, "sys", runeCounter{}, maxContext, maxResponse, 0)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}

	total := utf8.RuneCountInString("sys")
	for _, turn := range got {
		total += utf8.RuneCountInString(turn.Text)
	}
	if total > maxContext-maxResponse {
		t.Fatalf("output %d tokens exceeds budget %d", total, maxContext-maxResponse)
	}
}

func TestTrimDepthCap(t *testing.T) {
	turns := userTurns("a", "b", "c", "d", "e")
	got, err := trimTurns(turns, "", runeCounter{}, 1000, 0, 2)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("depth cap violated: %d turns", len(got))
	}
	if got[0].Text != "d" || got[1].Text != "e" {
		t.Fatalf("expected the two newest turns, got %+v", got)
	}
}

func TestTrimNoRoomIsFatal(t *testing.T) {
	turns := userTurns(strings.Repeat("x", 50))
	_, err := trimTurns(turns, "ss", runeCounter{}, 10, 5, 0)
	if !errors.Is(err, ErrNoRoom) {
		t.Fatalf("expected ErrNoRoom, got %v", err)
	}
}
