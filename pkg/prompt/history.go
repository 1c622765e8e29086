package prompt

import (
	"strings"

	"fable/pkg/schema"
)

// historyInput bundles everything the assembler needs to turn stored
// messages into role-tagged turns.
type historyInput struct {
	messages        []schema.StoredMessage
	userInput       string
	policy          schema.PrefixPolicy
	summaryTemplate string
	userName        string
	characterName   string
	names           map[string]string // character ID -> display name
}

// assembleHistory converts stored messages into turns. Disabled messages and
// scripted-prompt carriers are skipped; the injector owns the latter. The
// live user input, if any, lands as a trailing unprefixed user turn.
func assembleHistory(in historyInput) []schema.Turn {
	prefix := in.policy == schema.PrefixAlways ||
		(in.policy == schema.PrefixCharacters && distinctCharacters(in.messages) > 1)

	turns := make([]schema.Turn, 0, len(in.messages)+1)
	for _, msg := range in.messages {
		if msg.Disabled {
			continue
		}
		if msg.Extra != nil && msg.Extra.PromptConfig != nil {
			continue
		}

		switch msg.Type {
		case schema.MessageUser:
			turns = append(turns, schema.Turn{
				Role: schema.SpeakerUser,
				Text: prefixed(prefix, in.userName, msg.Text()),
			})
		case schema.MessageCharacter:
			turns = append(turns, schema.Turn{
				Role: schema.SpeakerAssistant,
				Text: prefixed(prefix, in.speakerName(msg), msg.Text()),
			})
		case schema.MessageSystem:
			text := msg.Text()
			if in.summaryTemplate != "" && msg.Extra != nil && msg.Extra.Script == schema.ScriptSummary {
				text = strings.ReplaceAll(in.summaryTemplate, "{{summary}}", text)
			}
			turns = append(turns, schema.Turn{Role: schema.SpeakerUser, Text: text})
		}
	}

	if in.userInput != "" {
		turns = append(turns, schema.Turn{Role: schema.SpeakerUser, Text: in.userInput})
	}
	return turns
}

func (in historyInput) speakerName(msg schema.StoredMessage) string {
	if msg.Extra != nil && msg.Extra.Name != "" {
		return msg.Extra.Name
	}
	if name, ok := in.names[msg.CharacterID]; ok && name != "" {
		return name
	}
	return in.characterName
}

// prefixed prepends "name: " when prefixing is on. A missing name degrades
// to no prefix at all.
func prefixed(on bool, name, text string) string {
	if !on || name == "" {
		return text
	}
	return name + ": " + text
}

func distinctCharacters(messages []schema.StoredMessage) int {
	seen := make(map[string]struct{})
	for _, msg := range messages {
		if msg.Type != schema.MessageCharacter || msg.Disabled {
			continue
		}
		key := msg.CharacterID
		if key == "" && msg.Extra != nil {
			key = msg.Extra.Name
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}
