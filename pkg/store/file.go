package store

import (
	"context"
	"fmt"
	"sync"

	"fable/pkg/schema"
	"fable/pkg/utils"
)

// fileData is the on-disk layout: one JSON document holding everything.
type fileData struct {
	Chats              map[string]*Chat                     `json:"chats,omitempty"`
	Templates          map[string]*schema.FormatTemplate    `json:"templates,omitempty"`
	InferenceTemplates map[string]*schema.InferenceTemplate `json:"inference_templates,omitempty"`
	Lorebooks          map[string]*schema.Lorebook          `json:"lorebooks,omitempty"`
}

// FileStore serves chats, templates, and lorebooks from a single JSON file,
// so the server runs stand-alone without a database. Read-only after Open.
type FileStore struct {
	mu   sync.RWMutex
	data fileData
}

func Open(path string) (*FileStore, error) {
	data, err := utils.Load[fileData](path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &FileStore{data: data}, nil
}

// NewMemory wraps pre-built records, mostly for tests and embedded use.
func NewMemory(chats map[string]*Chat, templates map[string]*schema.FormatTemplate, lorebooks map[string]*schema.Lorebook) *FileStore {
	return &FileStore{data: fileData{
		Chats:     chats,
		Templates: templates,
		Lorebooks: lorebooks,
	}}
}

// Save writes the store document to disk, pretty-printed so it stays
// editable by hand.
func (s *FileStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return utils.Save(path, s.data)
}

func (s *FileStore) Chat(_ context.Context, id string) (*Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if chat, ok := s.data.Chats[id]; ok {
		return chat, nil
	}
	return nil, fmt.Errorf("chat %q: %w", id, ErrNotFound)
}

func (s *FileStore) Template(_ context.Context, id string) (*schema.FormatTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tpl, ok := s.data.Templates[id]; ok {
		return tpl, nil
	}
	return nil, fmt.Errorf("template %q: %w", id, ErrNotFound)
}

func (s *FileStore) InferenceTemplate(_ context.Context, id string) (*schema.InferenceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tpl, ok := s.data.InferenceTemplates[id]; ok {
		return tpl, nil
	}
	return nil, fmt.Errorf("inference template %q: %w", id, ErrNotFound)
}

func (s *FileStore) Lorebook(_ context.Context, id string) (*schema.Lorebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if book, ok := s.data.Lorebooks[id]; ok {
		return book, nil
	}
	return nil, fmt.Errorf("lorebook %q: %w", id, ErrNotFound)
}
