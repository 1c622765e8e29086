package schema

// Role tags the author of a configured custom prompt.
type Role string

const (
	RoleUser      Role = "user"
	RoleCharacter Role = "character"
	RoleSystem    Role = "system"
)

// PromptPosition anchors a custom prompt inside the turn list or the system
// prompt section list.
type PromptPosition string

const (
	PositionTop        PromptPosition = "top"
	PositionBottom     PromptPosition = "bottom"
	PositionDepth      PromptPosition = "depth"
	PositionBeforeUser PromptPosition = "before_user_input"
	PositionAfterUser  PromptPosition = "after_user_input"
)

// CustomPrompt is an injectable block of text, either configured statically
// on a format template or resolved from a stored message's PromptConfig.
type CustomPrompt struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Role     Role           `json:"role"`
	Position PromptPosition `json:"position"`
	Depth    int            `json:"depth,omitempty"`
	Prompt   string         `json:"prompt"`
	Enabled  bool           `json:"enabled"`
}

// SectionType identifies a typed section of the system prompt.
type SectionType string

const (
	SectionContext          SectionType = "context"
	SectionCharacterContext SectionType = "character-context"
	SectionChapterContext   SectionType = "chapter-context"
	SectionUserContext      SectionType = "user-context"
	SectionLorebookTop      SectionType = "lorebook-top"
	SectionLorebookBottom   SectionType = "lorebook-bottom"
	SectionCustomField      SectionType = "custom-field"
)

// TemplateSection is one ordered piece of the system prompt.
type TemplateSection struct {
	Type    SectionType `json:"type"`
	Content string      `json:"content,omitempty"`
}

// PrefixPolicy controls when turn text is prefixed with the speaker's name.
type PrefixPolicy string

const (
	PrefixAlways     PrefixPolicy = "always"
	PrefixCharacters PrefixPolicy = "characters"
	PrefixNever      PrefixPolicy = "never"
)

// FormatTemplate drives prompt assembly: the ordered system prompt sections,
// static custom prompts, lorebook bindings, and assembly settings.
type FormatTemplate struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Sections         []TemplateSection `json:"sections"`
	CustomPrompts    []CustomPrompt    `json:"custom_prompts,omitempty"`
	Lorebooks        []string          `json:"lorebooks,omitempty"`
	Separator        string            `json:"separator,omitempty"`
	PrefixMessages   PrefixPolicy      `json:"prefix_messages,omitempty"`
	MergeConsecutive bool              `json:"merge_consecutive,omitempty"`
	SummaryTemplate  string            `json:"summary_template,omitempty"`
	ReasoningPrefix  string            `json:"reasoning_prefix,omitempty"`
	ReasoningSuffix  string            `json:"reasoning_suffix,omitempty"`
}

// InferenceTemplate wraps turns for completion-style engines that take one
// literal prompt string instead of structured chat messages.
type InferenceTemplate struct {
	SystemPrefix    string   `json:"system_prefix,omitempty"`
	SystemSuffix    string   `json:"system_suffix,omitempty"`
	UserPrefix      string   `json:"user_prefix,omitempty"`
	UserSuffix      string   `json:"user_suffix,omitempty"`
	AssistantPrefix string   `json:"assistant_prefix,omitempty"`
	AssistantSuffix string   `json:"assistant_suffix,omitempty"`
	Prefill         string   `json:"prefill,omitempty"`
	StopStrings     []string `json:"stop_strings,omitempty"`
}
