package server

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fable/pkg/prompt"
	"fable/pkg/schema"
	"fable/pkg/store"
	"fable/pkg/stream"
)

type formatReq struct {
	ChatID              string            `json:"chat_id,omitempty"`
	TemplateID          string            `json:"template_id,omitempty"`
	InferenceTemplateID string            `json:"inference_template_id,omitempty"`
	UserInput           string            `json:"user_input,omitempty"`
	SystemOverride      string            `json:"system_override,omitempty"`
	Extra               map[string]string `json:"extra,omitempty"`
	MaxContextTokens    int               `json:"max_context_tokens,omitempty"`
	MaxResponseTokens   int               `json:"max_response_tokens,omitempty"`
	MaxDepth            int               `json:"max_depth,omitempty"`
	LorebookBudget      int               `json:"lorebook_budget,omitempty"`

	// Inline alternatives to the persisted records. Each one set here
	// overrides the corresponding field of the stored chat; with no chat_id
	// at all the request is fully self-contained.
	Messages  []schema.StoredMessage `json:"messages,omitempty"`
	Character *schema.Persona        `json:"character,omitempty"`
	User      *schema.Persona        `json:"user,omitempty"`
	Chapter   *schema.Chapter        `json:"chapter,omitempty"`
	Template  *schema.FormatTemplate `json:"template,omitempty"`
}

// POST /api/format
func (s *Server) handlePostFormat(c echo.Context) error {
	var req formatReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/format", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	ctx := c.Request().Context()
	_, cfg, err := s.buildConfig(ctx, req)
	if err != nil {
		return httpError(err)
	}

	result, err := s.Formatter.FormatPrompt(ctx, cfg)
	if err != nil {
		log.Error("prompt assembly failed", "chat", req.ChatID, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// buildConfig resolves the persisted pieces a format call names. The chat
// and template reads have no dependency on each other and run concurrently.
func (s *Server) buildConfig(ctx context.Context, req formatReq) (*store.Chat, prompt.Config, error) {
	var (
		chat    *store.Chat
		tpl     *schema.FormatTemplate
		infTpl  *schema.InferenceTemplate
		chatErr error
		tplErr  error
		infErr  error
	)

	var wg sync.WaitGroup
	if req.ChatID != "" {
		wg.Go(func() {
			chat, chatErr = s.Chats.Chat(ctx, req.ChatID)
		})
	} else {
		chat = &store.Chat{}
	}
	switch {
	case req.Template != nil:
		tpl = req.Template
	case req.TemplateID != "":
		wg.Go(func() {
			tpl, tplErr = s.Templates.Template(ctx, req.TemplateID)
		})
	default:
		tpl = &schema.FormatTemplate{}
	}
	if req.InferenceTemplateID != "" {
		wg.Go(func() {
			infTpl, infErr = s.Templates.InferenceTemplate(ctx, req.InferenceTemplateID)
		})
	}
	wg.Wait()

	if err := cmp.Or(chatErr, tplErr, infErr); err != nil {
		return nil, prompt.Config{}, err
	}

	messages := chat.Messages
	if len(req.Messages) > 0 {
		messages = req.Messages
	}
	character := chat.Character
	if req.Character != nil {
		character = *req.Character
	}
	user := chat.User
	if req.User != nil {
		user = *req.User
	}
	chapter := chat.Chapter
	if req.Chapter != nil {
		chapter = *req.Chapter
	}

	limits := s.Config.Limits
	return chat, prompt.Config{
		Messages:          messages,
		UserInput:         req.UserInput,
		Template:          *tpl,
		Inference:         infTpl,
		SystemOverride:    req.SystemOverride,
		Character:         character,
		User:              user,
		Chapter:           chapter,
		CharacterNames:    chat.CharacterNames,
		CharacterLorebook: chat.CharacterLorebook,
		UserLorebook:      chat.UserLorebook,
		LorebookBudget:    cmp.Or(req.LorebookBudget, limits.LorebookBudget),
		MaxContextTokens:  cmp.Or(req.MaxContextTokens, limits.MaxContextTokens),
		MaxResponseTokens: cmp.Or(req.MaxResponseTokens, limits.MaxResponseTokens),
		MaxDepth:          cmp.Or(req.MaxDepth, limits.MaxDepth),
		Extra:             req.Extra,
		CensorWords:       s.Config.Censor.Words,
		CensorMask:        s.Config.Censor.Mask,
	}, nil
}

func (s *Server) reasoningTags(tpl schema.FormatTemplate) stream.TagConfig {
	if tpl.ReasoningPrefix != "" || tpl.ReasoningSuffix != "" {
		return stream.TagConfig{Prefix: tpl.ReasoningPrefix, Suffix: tpl.ReasoningSuffix}
	}
	return stream.TagConfig{Prefix: s.Config.Reasoning.Prefix, Suffix: s.Config.Reasoning.Suffix}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, prompt.ErrNoRoom):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
