package schema

// InsertionType routes a triggered lorebook entry into the prompt.
type InsertionType string

const (
	InsertLorebookTop    InsertionType = "lorebook_top"
	InsertLorebookBottom InsertionType = "lorebook_bottom"
	InsertUser           InsertionType = "user"
	InsertAssistant      InsertionType = "assistant"
)

// LorebookEntry is one keyword-triggered knowledge snippet.
type LorebookEntry struct {
	ID                string        `json:"id"`
	Keywords          []string      `json:"keywords"`
	CaseSensitive     bool          `json:"case_sensitive,omitempty"`
	MatchPartialWords bool          `json:"match_partial_words,omitempty"`
	Constant          bool          `json:"constant,omitempty"`
	MinChatMessages   int           `json:"min_chat_messages,omitempty"`
	Depth             int           `json:"depth,omitempty"`
	Priority          int           `json:"priority,omitempty"`
	Content           string        `json:"content"`
	InsertionType     InsertionType `json:"insertion_type"`
	Enabled           bool          `json:"enabled"`
}

// Lorebook is an ordered set of entries sharing one token allowance.
// MaxTokens <= 0 means the book itself imposes no limit.
type Lorebook struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Entries   []LorebookEntry `json:"entries"`
}
