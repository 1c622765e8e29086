package store

import (
	"context"
	"errors"

	"fable/pkg/schema"
)

// ErrNotFound wraps every lookup miss.
var ErrNotFound = errors.New("not found")

// Chat bundles the persisted pieces one format call needs: the message
// history plus the personas and lorebook bindings around it.
type Chat struct {
	ID                string                 `json:"id"`
	CharacterID       string                 `json:"character_id,omitempty"`
	Messages          []schema.StoredMessage `json:"messages"`
	Character         schema.Persona         `json:"character"`
	User              schema.Persona         `json:"user"`
	Chapter           schema.Chapter         `json:"chapter,omitempty"`
	CharacterLorebook string                 `json:"character_lorebook,omitempty"`
	UserLorebook      string                 `json:"user_lorebook,omitempty"`
	CharacterNames    map[string]string      `json:"character_names,omitempty"`
}

// Chats reads persisted conversations. The pipeline never writes through it.
type Chats interface {
	Chat(ctx context.Context, id string) (*Chat, error)
}

// Templates reads format and inference templates.
type Templates interface {
	Template(ctx context.Context, id string) (*schema.FormatTemplate, error)
	InferenceTemplate(ctx context.Context, id string) (*schema.InferenceTemplate, error)
}

// Lorebooks reads lorebooks by ID. Satisfies lorebook.Library.
type Lorebooks interface {
	Lorebook(ctx context.Context, id string) (*schema.Lorebook, error)
}
