package stream

import "testing"

func TestRegistryApplyAccumulates(t *testing.T) {
	r := NewRegistry()
	s := r.Begin("char-1", "msg-1", nil)

	text, reasoning, ok := r.Apply(s.RequestID, "<think>plan</think>hi", DefaultTags)
	if !ok {
		t.Fatalf("live session must accept chunks")
	}
	if text != "hi" || reasoning != "plan" {
		t.Fatalf("got text=%q reasoning=%q", text, reasoning)
	}

	text, reasoning, ok = r.Complete(s.RequestID)
	if !ok || text != "hi" || reasoning != "plan" {
		t.Fatalf("complete: ok=%v text=%q reasoning=%q", ok, text, reasoning)
	}
}

func TestRegistryCompleteFlushesBufferedTail(t *testing.T) {
	r := NewRegistry()
	s := r.Begin("char-1", "msg-1", nil)

	// The tail looks like the start of a tag, so the parser withholds it.
	if text, _, _ := r.Apply(s.RequestID, "x is <th", DefaultTags); text != "x is " {
		t.Fatalf("got text=%q", text)
	}

	text, reasoning, ok := r.Complete(s.RequestID)
	if !ok || text != "x is <th" || reasoning != "" {
		t.Fatalf("complete: ok=%v text=%q reasoning=%q", ok, text, reasoning)
	}
}

func TestRegistryCompleteFlushesReasoningTail(t *testing.T) {
	r := NewRegistry()
	s := r.Begin("char-1", "msg-1", nil)

	r.Apply(s.RequestID, "<think>plan</thi", DefaultTags)

	_, reasoning, ok := r.Complete(s.RequestID)
	if !ok || reasoning != "plan</thi" {
		t.Fatalf("complete: ok=%v reasoning=%q", ok, reasoning)
	}
}

func TestRegistryIgnoresStaleRequests(t *testing.T) {
	r := NewRegistry()
	old := r.Begin("char-1", "msg-1", nil)
	live := r.Begin("char-1", "msg-2", nil)

	if _, _, ok := r.Apply(old.RequestID, "stale", DefaultTags); ok {
		t.Fatalf("superseded request must be ignored")
	}
	if _, _, ok := r.Complete(old.RequestID); ok {
		t.Fatalf("stale completion must be ignored")
	}
	if r.Fail(old.RequestID) {
		t.Fatalf("stale error must be ignored")
	}
	if _, _, ok := r.Apply(live.RequestID, "fresh", DefaultTags); !ok {
		t.Fatalf("live request must still work")
	}
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()

	if r.Cancel("nope") {
		t.Fatalf("cancel with no active request must report failure")
	}

	cancelled := false
	s := r.Begin("char-1", "msg-1", func() { cancelled = true })
	if !r.Cancel(s.RequestID) {
		t.Fatalf("cancel of live request must succeed")
	}
	if !cancelled {
		t.Fatalf("cancel func not invoked")
	}
	if r.Cancel(s.RequestID) {
		t.Fatalf("second cancel must be a no-op reporting failure")
	}
	if _, _, ok := r.Apply(s.RequestID, "after cancel", DefaultTags); ok {
		t.Fatalf("no chunk may land after cancellation")
	}
}
