package prompt

import (
	"slices"

	"github.com/charmbracelet/log"

	"fable/pkg/lorebook"
	"fable/pkg/schema"
)

// resolveScripted derives active custom prompts from stored-message metadata.
//
// "next" prompts stay active only while their carrier is the most recent
// actionable message; when several are pending the last one wins and earlier
// ones are dropped. "global" prompts are grouped by (global type, agent when
// scoped) and the newest carrier per group wins.
func resolveScripted(messages []schema.StoredMessage) []schema.CustomPrompt {
	type winner struct {
		position int
		msg      schema.StoredMessage
	}

	var next *winner
	globals := make(map[string]winner)
	var groupOrder []string

	for _, msg := range messages {
		if msg.Disabled || msg.Extra == nil || msg.Extra.PromptConfig == nil {
			continue
		}
		cfg := msg.Extra.PromptConfig

		switch cfg.Behavior {
		case schema.BehaviorNext:
			if next == nil || msg.Position > next.position {
				next = &winner{position: msg.Position, msg: msg}
			}
		case schema.BehaviorGlobal:
			key := cfg.GlobalType
			if cfg.ScopeToAgent {
				key += "\x00" + msg.Extra.AgentID
			}
			if cur, ok := globals[key]; !ok || msg.Position > cur.position {
				if !ok {
					groupOrder = append(groupOrder, key)
				}
				globals[key] = winner{position: msg.Position, msg: msg}
			}
		}
	}

	var out []schema.CustomPrompt
	if next != nil && !hasRegularAfter(messages, next.position) {
		out = append(out, promptFromMessage(next.msg))
	}
	for _, key := range groupOrder {
		out = append(out, promptFromMessage(globals[key].msg))
	}
	return out
}

// hasRegularAfter reports whether any enabled user/character message sits
// after the given position.
func hasRegularAfter(messages []schema.StoredMessage, position int) bool {
	for _, msg := range messages {
		if msg.Position <= position || msg.Disabled {
			continue
		}
		if msg.Extra != nil && msg.Extra.PromptConfig != nil {
			continue
		}
		if msg.Type == schema.MessageUser || msg.Type == schema.MessageCharacter {
			return true
		}
	}
	return false
}

func promptFromMessage(msg schema.StoredMessage) schema.CustomPrompt {
	cfg := msg.Extra.PromptConfig
	return schema.CustomPrompt{
		ID:       msg.ID,
		Role:     cfg.Role,
		Position: cfg.Position,
		Depth:    cfg.Depth,
		Prompt:   cfg.Prompt,
		Enabled:  true,
	}
}

// injectTurns splices non-system prompts into the turn list by anchor
// position. Top prompts are unshifted in inverse order so their relative
// order survives; every other position is applied in original prompt order,
// each insertion seeing the list length its predecessors produced.
func injectTurns(turns []schema.Turn, prompts []schema.CustomPrompt) []schema.Turn {
	for i := len(prompts) - 1; i >= 0; i-- {
		p := prompts[i]
		if !p.Enabled || p.Role == schema.RoleSystem || p.Position != schema.PositionTop {
			continue
		}
		turns = slices.Insert(turns, 0, promptTurn(p))
	}

	for _, p := range prompts {
		if !p.Enabled || p.Role == schema.RoleSystem {
			continue
		}
		switch p.Position {
		case schema.PositionTop:
			// handled above
		case schema.PositionBottom:
			turns = append(turns, promptTurn(p))
		case schema.PositionDepth:
			at := max(0, len(turns)-p.Depth)
			turns = slices.Insert(turns, at, promptTurn(p))
		case schema.PositionBeforeUser, schema.PositionAfterUser:
			at := lastUserIndex(turns)
			if at < 0 {
				turns = append(turns, promptTurn(p))
				continue
			}
			if p.Position == schema.PositionAfterUser {
				at++
			}
			turns = slices.Insert(turns, at, promptTurn(p))
		default:
			log.Warn("skipping custom prompt with unknown position", "prompt", p.ID, "position", p.Position)
		}
	}
	return turns
}

func promptTurn(p schema.CustomPrompt) schema.Turn {
	role := schema.SpeakerUser
	if p.Role == schema.RoleCharacter {
		role = schema.SpeakerAssistant
	}
	return schema.Turn{Role: role, Text: p.Prompt}
}

func lastUserIndex(turns []schema.Turn) int {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == schema.SpeakerUser {
			return i
		}
	}
	return -1
}

// mergeLorebookMessages splices positional lorebook entries by depth, deepest
// first so earlier insertions don't shift the indices later ones rely on.
func mergeLorebookMessages(turns []schema.Turn, messages []lorebook.Message) []schema.Turn {
	sorted := slices.Clone(messages)
	slices.SortStableFunc(sorted, func(a, b lorebook.Message) int {
		return b.Depth - a.Depth
	})
	for _, msg := range sorted {
		at := max(0, len(turns)-msg.Depth)
		turns = slices.Insert(turns, at, schema.Turn{Role: msg.Role, Text: msg.Content})
	}
	return turns
}

// injectSections splices system-role prompts into the template's section
// list. Prompts are grouped by position; each group is inserted in reverse
// so within-group order is preserved once spliced. Turn-relative anchors
// have no meaning here and are skipped.
func injectSections(sections []schema.TemplateSection, prompts []schema.CustomPrompt, override string) []schema.TemplateSection {
	sections = slices.Clone(sections)

	var top, bottom, def []schema.CustomPrompt
	byDepth := make(map[int][]schema.CustomPrompt)
	for _, p := range prompts {
		if !p.Enabled || p.Role != schema.RoleSystem {
			continue
		}
		switch p.Position {
		case schema.PositionTop:
			top = append(top, p)
		case schema.PositionBottom:
			bottom = append(bottom, p)
		case schema.PositionDepth:
			byDepth[p.Depth] = append(byDepth[p.Depth], p)
		case schema.PositionBeforeUser, schema.PositionAfterUser:
			log.Warn("skipping system prompt with turn-relative position", "prompt", p.ID, "position", p.Position)
		default:
			def = append(def, p)
		}
	}

	if override != "" {
		if at := sectionIndex(sections, schema.SectionContext); at >= 0 {
			sections[at].Content = override
		} else {
			sections = slices.Insert(sections, 0, schema.TemplateSection{
				Type: schema.SectionContext, Content: override,
			})
		}
	}

	for i := len(top) - 1; i >= 0; i-- {
		sections = slices.Insert(sections, 0, promptSection(top[i]))
	}

	// Unrecognized positions anchor right after the context section.
	at := sectionIndex(sections, schema.SectionContext) + 1
	for i := len(def) - 1; i >= 0; i-- {
		sections = slices.Insert(sections, at, promptSection(def[i]))
	}

	depths := make([]int, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	slices.Sort(depths)
	for _, d := range depths {
		group := byDepth[d]
		at := max(0, len(sections)-d)
		for i := len(group) - 1; i >= 0; i-- {
			sections = slices.Insert(sections, at, promptSection(group[i]))
		}
	}

	for _, p := range bottom {
		sections = append(sections, promptSection(p))
	}
	return sections
}

func promptSection(p schema.CustomPrompt) schema.TemplateSection {
	return schema.TemplateSection{Type: schema.SectionCustomField, Content: p.Prompt}
}

func sectionIndex(sections []schema.TemplateSection, kind schema.SectionType) int {
	for i, s := range sections {
		if s.Type == kind {
			return i
		}
	}
	return -1
}
