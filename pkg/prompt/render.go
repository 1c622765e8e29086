package prompt

import (
	"strings"

	"fable/pkg/schema"
)

// Rendered is the flattened form a completion-style engine consumes.
type Rendered struct {
	Prompt      string
	StopStrings []string
}

// renderCompletion concatenates the system prompt and every turn through the
// inference template's role wrappers. The last turn keeps its suffix unless
// it is an assistant turn, in which case the prompt is left open for the
// model to continue; otherwise an assistant prefix plus the configured
// prefill primes the continuation.
func renderCompletion(turns []schema.Turn, systemPrompt string, tpl schema.InferenceTemplate) Rendered {
	var b strings.Builder

	if systemPrompt != "" {
		b.WriteString(tpl.SystemPrefix)
		b.WriteString(systemPrompt)
		b.WriteString(tpl.SystemSuffix)
	}

	for i, turn := range turns {
		prefix, suffix := tpl.UserPrefix, tpl.UserSuffix
		if turn.Role == schema.SpeakerAssistant {
			prefix, suffix = tpl.AssistantPrefix, tpl.AssistantSuffix
		}
		b.WriteString(prefix)
		b.WriteString(turn.Text)
		if i == len(turns)-1 && turn.Role == schema.SpeakerAssistant {
			continue
		}
		b.WriteString(suffix)
	}

	endsOpen := len(turns) > 0 && turns[len(turns)-1].Role == schema.SpeakerAssistant
	if !endsOpen {
		b.WriteString(tpl.AssistantPrefix)
		b.WriteString(tpl.Prefill)
	}

	return Rendered{
		Prompt:      b.String(),
		StopStrings: stopStrings(tpl),
	}
}

// stopStrings is the union of the configured custom stops and the non-empty
// role suffixes, so the engine can treat a well-formed turn boundary as a
// stop condition.
func stopStrings(tpl schema.InferenceTemplate) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range tpl.StopStrings {
		add(s)
	}
	add(tpl.UserSuffix)
	add(tpl.AssistantSuffix)
	return out
}
