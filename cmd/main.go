package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/gommon/log"

	"fable/pkg/config"
	"fable/pkg/inference"
	"fable/pkg/server"
	"fable/pkg/store"
	"fable/pkg/utils"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGKILL)

	configPath := os.Getenv("FABLE_CONFIG")
	if configPath == "" {
		configPath = "fable.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	inf := newInferencer(cfg)

	storePath := cfg.StorePath
	if storePath == "" {
		storePath = "fable.json"
	}
	var st *store.FileStore
	if utils.Exists(storePath) {
		st, err = store.Open(storePath)
		if err != nil {
			log.Warnf("Failed to load %s: %v", storePath, err)
			st = store.NewMemory(nil, nil, nil)
		}
	} else {
		st = store.NewMemory(nil, nil, nil)
		if err := st.Save(storePath); err != nil {
			log.Warnf("Failed to write starter store %s: %v", storePath, err)
		} else {
			log.Infof("Wrote starter store to %s", storePath)
		}
	}

	srv := server.NewServer(ctx, cfg, inf, st, st, st)
	srv.Echo.Logger.SetLevel(log.DEBUG)

	addr := cfg.Addr
	if envAddr := os.Getenv("PORT"); envAddr != "" {
		addr = ":" + envAddr
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatal(err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err)
	}
	<-finishedShutDown
}

func newInferencer(cfg config.Config) inference.Inferencer {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := cfg.Engine.Model
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}

	switch cfg.Engine.Kind {
	case "gemini":
		gem, err := inference.NewGeminiInferencer(os.Getenv("GEMINI_API_KEY"), model)
		if err == nil {
			return gem
		}
		log.Warnf("Failed to create gemini engine, falling back to openai: %v", err)
	case "completion":
		return inference.NewCompletionInferencer(apiKey, cfg.Engine.BaseURL, model)
	}

	openAI := inference.NewOpenAIInferencer(apiKey, model)
	if cfg.Engine.BaseURL != "" {
		openAI.ChangeBaseURL(cfg.Engine.BaseURL)
	} else if apiKey == "" {
		openAI.ChangeBaseURL("http://localhost:1234/v1")
		openAI.SetModel("")
	}
	return openAI
}
