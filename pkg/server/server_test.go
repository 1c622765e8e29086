package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fable/pkg/config"
	"fable/pkg/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	st := store.NewMemory(nil, nil, nil)
	return NewServer(context.Background(), config.Default(), nil, st, st, st)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestGetRoot(t *testing.T) {
	rec := do(testServer(t), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("got %+v", body)
	}
}

func TestTokenCountEstimate(t *testing.T) {
	rec := do(testServer(t), http.MethodPost, "/api/tokens/count",
		`{"text": "twelve runes", "mode": "estimate"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var body tokenCountResp
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 3 || body.Model != "estimate" {
		t.Fatalf("got %+v", body)
	}
}

func TestTokenCountRejectsBadJSON(t *testing.T) {
	rec := do(testServer(t), http.MethodPost, "/api/tokens/count", `{"text": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCancelWithoutLiveSession(t *testing.T) {
	rec := do(testServer(t), http.MethodPost, "/api/generate/nope/cancel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] {
		t.Fatal("cancel with no live session must report success=false")
	}
}

func TestFormatInlineRequestNeedsNoStoredRecords(t *testing.T) {
	rec := do(testServer(t), http.MethodPost, "/api/format", `{
		"messages": [
			{"id": "m1", "type": "user", "texts": ["hello there"], "position": 1},
			{"id": "m2", "type": "character", "texts": ["well met"], "position": 2}
		],
		"character": {"name": "Mira"},
		"user": {"name": "Sam"},
		"user_input": "how goes it"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Turns []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Turns) != 3 {
		t.Fatalf("got %d turns: %+v", len(body.Turns), body.Turns)
	}
	if body.Turns[2].Text != "how goes it" {
		t.Fatalf("trailing user input missing: %+v", body.Turns)
	}
}

func TestFormatUnknownChatIs404(t *testing.T) {
	rec := do(testServer(t), http.MethodPost, "/api/format",
		`{"chat_id": "ghost", "user_input": "hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
}
