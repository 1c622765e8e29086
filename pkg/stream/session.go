package stream

import (
	"context"
	"sync"

	"github.com/segmentio/ksuid"
)

// Session is the streaming state of one in-flight generation.
type Session struct {
	RequestID   string
	CharacterID string
	MessageID   string

	State     State
	Text      string
	Reasoning string

	cancel context.CancelFunc
}

// Registry tracks the single live session. Notifications carrying a request
// ID other than the tracked one are provably stale and get dropped, which
// covers cancellation and overlapping-request races.
type Registry struct {
	mu      sync.Mutex
	current *Session
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Begin starts a new session, superseding and cancelling any previous one.
// cancel may be nil when the caller has nothing to abort.
func (r *Registry) Begin(characterID, messageID string, cancel context.CancelFunc) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.current.cancel != nil {
		r.current.cancel()
	}
	r.current = &Session{
		RequestID:   ksuid.New().String(),
		CharacterID: characterID,
		MessageID:   messageID,
		cancel:      cancel,
	}
	return r.current
}

// Apply runs one chunk through the tag parser and accumulates the split
// output. ok is false when requestID no longer matches the live session;
// such chunks must not touch any derived state.
func (r *Registry) Apply(requestID, chunk string, tags TagConfig) (text, reasoning string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.RequestID != requestID {
		return "", "", false
	}
	r.current.State, text, reasoning = ProcessChunk(r.current.State, chunk, tags)
	r.current.Text += text
	r.current.Reasoning += reasoning
	return text, reasoning, true
}

// Complete finishes the session and returns its accumulated output. Text
// still buffered as a possible partial tag can no longer complete into one,
// so it flushes to whichever channel the stream ended in. Stale completions
// return ok false and change nothing.
func (r *Registry) Complete(requestID string) (text, reasoning string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.RequestID != requestID {
		return "", "", false
	}
	if tail := r.current.State.Buffer; tail != "" {
		if r.current.State.IsThinking {
			r.current.Reasoning += tail
		} else {
			r.current.Text += tail
		}
	}
	text, reasoning = r.current.Text, r.current.Reasoning
	r.current = nil
	return text, reasoning, true
}

// Fail resets the session so a genuine error can be surfaced once. Stale
// errors report false and are ignored by the caller.
func (r *Registry) Fail(requestID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.RequestID != requestID {
		return false
	}
	r.current = nil
	return true
}

// Cancel aborts the live session. Cancelling an unknown or already-finished
// request is a no-op reporting false, never an error. Idempotent.
func (r *Registry) Cancel(requestID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.RequestID != requestID {
		return false
	}
	if r.current.cancel != nil {
		r.current.cancel()
	}
	r.current = nil
	return true
}
