package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fable/pkg/inference"
	"fable/pkg/utils"
)

type generateReq struct {
	formatReq
	MessageID   string  `json:"message_id,omitempty"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int64   `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type chunkPayload struct {
	Text      string `json:"text,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// errSuperseded aborts an engine stream whose session was replaced or
// cancelled; its chunks must not reach the client.
var errSuperseded = errors.New("request superseded")

// POST /api/generate
func (s *Server) handlePostGenerate(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/generate", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	ctx := c.Request().Context()
	chat, cfg, err := s.buildConfig(ctx, req.formatReq)
	if err != nil {
		return httpError(err)
	}
	result, err := s.Formatter.FormatPrompt(ctx, cfg)
	if err != nil {
		log.Error("prompt assembly failed", "chat", req.ChatID, "error", err)
		return httpError(err)
	}

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	session := s.Streams.Begin(chat.CharacterID, req.MessageID, cancel)
	tags := s.reasoningTags(cfg.Template)

	w := utils.NewSSEWriter(c)
	defer w.Close()
	if err := w.Event("start", map[string]string{"request_id": session.RequestID}); err != nil {
		return nil
	}

	log.Info("starting generation", "request", session.RequestID, "chat", req.ChatID, "turns", len(result.Turns))

	infReq := &inference.Request{
		Turns:        result.Turns,
		SystemPrompt: result.SystemPrompt,
		Prompt:       result.Prompt,
		StopStrings:  result.StopStrings,
		Model:        req.Model,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	}

	err = s.Inferencer.Stream(genCtx, infReq, func(chunk string) error {
		text, reasoning, ok := s.Streams.Apply(session.RequestID, chunk, tags)
		if !ok {
			return errSuperseded
		}
		if text == "" && reasoning == "" {
			return nil
		}
		return w.Event("chunk", chunkPayload{Text: text, Reasoning: reasoning})
	})
	if err != nil {
		if errors.Is(err, errSuperseded) || genCtx.Err() != nil {
			log.Info("generation cancelled", "request", session.RequestID)
			return nil
		}
		// Errors for a session that is no longer live are already superseded
		// and stay silent; a live failure is surfaced exactly once.
		if s.Streams.Fail(session.RequestID) {
			log.Error("generation failed", "request", session.RequestID, "error", err)
			_ = w.Event("error", map[string]string{"message": "generation failed: " + err.Error()})
		}
		return nil
	}

	text, reasoning, ok := s.Streams.Complete(session.RequestID)
	if !ok {
		return nil
	}
	return w.Event("done", chunkPayload{Text: text, Reasoning: reasoning})
}

// POST /api/generate/:id/cancel
func (s *Server) handlePostCancel(c echo.Context) error {
	id := c.Param("id")
	ok := s.Streams.Cancel(id)
	if !ok {
		log.Debug("cancel for unknown request", "request", id)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": ok})
}
