package schema

// MessageType classifies who authored a stored chat message.
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageCharacter MessageType = "character"
	MessageSystem    MessageType = "system"
)

// Speaker tags an assembled prompt turn. Unlike MessageType it only ever
// takes the two roles a model backend understands.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one role-tagged unit of prompt text. Turn lists are always copies;
// the pipeline never hands a caller-owned slice to a mutating stage.
type Turn struct {
	Role Speaker `json:"role"`
	Text string  `json:"text"`
}

// StoredMessage is a chat message as the persistence collaborator hands it
// over. Read-only to the pipeline.
type StoredMessage struct {
	ID            string        `json:"id"`
	Type          MessageType   `json:"type"`
	CharacterID   string        `json:"character_id,omitempty"`
	Texts         []string      `json:"texts"`
	ActiveVariant int           `json:"active_variant"`
	Disabled      bool          `json:"disabled,omitempty"`
	Position      int           `json:"position"`
	Extra         *MessageExtra `json:"extra,omitempty"`
}

// Text returns the active variant, clamped to the stored range.
func (m StoredMessage) Text() string {
	if len(m.Texts) == 0 {
		return ""
	}
	i := m.ActiveVariant
	if i < 0 || i >= len(m.Texts) {
		i = 0
	}
	return m.Texts[i]
}

// MessageExtra carries per-message metadata: scripted system behavior and
// dynamically configured prompts.
type MessageExtra struct {
	Script       string        `json:"script,omitempty"`
	PromptConfig *PromptConfig `json:"prompt_config,omitempty"`
	AgentID      string        `json:"agent_id,omitempty"`
	Name         string        `json:"name,omitempty"`
}

// ScriptSummary marks a system message holding a chat summary that should be
// rendered through the template's summary-injection text.
const ScriptSummary = "summary"

// PromptBehavior selects how a scripted prompt decides whether it is active.
type PromptBehavior string

const (
	// BehaviorNext keeps the prompt active only while its carrier is still
	// the most recent actionable message.
	BehaviorNext PromptBehavior = "next"
	// BehaviorGlobal keeps the newest prompt per (global type, agent) group
	// active for the rest of the chat.
	BehaviorGlobal PromptBehavior = "global"
)

// PromptConfig turns a stored message into a scripted custom prompt.
type PromptConfig struct {
	Behavior     PromptBehavior `json:"behavior"`
	GlobalType   string         `json:"global_type,omitempty"`
	ScopeToAgent bool           `json:"scope_to_agent,omitempty"`
	Role         Role           `json:"role"`
	Position     PromptPosition `json:"position"`
	Depth        int            `json:"depth,omitempty"`
	Prompt       string         `json:"prompt"`
}

// Persona is the name/personality pair for a character or the user.
type Persona struct {
	Name        string `json:"name"`
	Personality string `json:"personality,omitempty"`
}

// Chapter describes the scene the chat currently plays in.
type Chapter struct {
	Title        string `json:"title,omitempty"`
	Scenario     string `json:"scenario,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}
