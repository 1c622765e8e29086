package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fable/pkg/config"
	"fable/pkg/inference"
	"fable/pkg/prompt"
	"fable/pkg/store"
	"fable/pkg/stream"
	"fable/pkg/tokens"
	"fable/pkg/utils"
)

type Server struct {
	Echo       *echo.Echo
	Inferencer inference.Inferencer
	Formatter  *prompt.Formatter
	Chats      store.Chats
	Templates  store.Templates
	Counter    tokens.Counter
	Streams    *stream.Registry
	Config     config.Config
	Ctx        context.Context
}

func NewServer(ctx context.Context, cfg config.Config, inf inference.Inferencer, chats store.Chats, templates store.Templates, lorebooks store.Lorebooks) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	counter := tokens.NewCache()
	s := &Server{
		Echo:       e,
		Inferencer: inf,
		Formatter:  prompt.NewFormatter(lorebooks, counter),
		Chats:      chats,
		Templates:  templates,
		Counter:    counter,
		Streams:    stream.NewRegistry(),
		Config:     cfg,
		Ctx:        ctx,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.POST("/format", s.handlePostFormat)           // prompt assembly -> turns/system/stops
	api.POST("/tokens/count", s.handlePostTokenCount) // token counting service
	api.POST("/generate", s.handlePostGenerate)       // SSE generation through the tag parser
	api.POST("/generate/:id/cancel", s.handlePostCancel)
}

func (s *Server) Start(addr string) error {
	utils.Logf("Server listening at %s", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	utils.Logf("Shutting down server...")
	return s.Echo.Shutdown(ctx)
}
