package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mpilhlt/filmstudio/internal/auth"
	"github.com/mpilhlt/filmstudio/internal/crypto"
	"github.com/mpilhlt/filmstudio/internal/database"
	"github.com/mpilhlt/filmstudio/internal/embedding"
	"github.com/mpilhlt/filmstudio/internal/generation"
	"github.com/mpilhlt/filmstudio/internal/handlers"
	"github.com/mpilhlt/filmstudio/internal/history"
	"github.com/mpilhlt/filmstudio/internal/logging"
	"github.com/mpilhlt/filmstudio/internal/models"
	"github.com/mpilhlt/filmstudio/internal/session"

	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	huma "github.com/danielgtaylor/huma/v2"
)

func main() {
	// A missing .env file is fine, the environment and flags still apply.
	_ = godotenv.Load()

	// Create a CLI app
	cli := humacli.New(func(hooks humacli.Hooks, options *models.Options) {
		level := "info"
		if options.Debug {
			level = "debug"
		}
		logger, err := logging.New(logging.Config{Level: level, Encoding: options.LogFormat})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to set up logging: %v\n", err)
			os.Exit(1)
		}
		logger.Info("Starting filmstudio",
			zap.Bool("debug", options.Debug),
			zap.String("host", options.Host),
			zap.Int("port", options.Port),
			zap.String("backend", options.Backend),
			zap.String("model_backend", options.ModelBackend),
			zap.Bool("history", options.History))

		ctx, cancel := context.WithCancel(context.Background())

		storyboards, assets, err := newBackends(ctx, options)
		if err != nil {
			logger.Fatal("Unable to set up generation backend", zap.Error(err))
		}
		genOpts := []generation.Option{
			generation.WithTimeout(time.Duration(options.GenerationTimeout) * time.Second),
			generation.WithLogger(logger.Named("generation")),
		}
		if options.BackendRPM > 0 {
			limit := rate.Every(time.Minute / time.Duration(options.BackendRPM))
			genOpts = append(genOpts, generation.WithLimiter(rate.NewLimiter(limit, 1)))
		}
		var gen generation.Generator = generation.NewService(storyboards, assets, genOpts...)

		hist, closeHistory, err := newHistory(ctx, options, logger)
		if err != nil {
			logger.Fatal("Unable to set up generation history", zap.Error(err))
		}
		if hist != nil {
			gen = history.NewRecordingGenerator(gen, hist, logger.Named("history"))
		}

		forms := session.NewManager(ctx, session.Config{
			Generator: gen,
			Previews:  session.NewPreviews(time.Duration(options.PreviewTTL) * time.Minute),
			Logger:    logger.Named("forms"),
			FormTTL:   time.Duration(options.FormTTL) * time.Minute,
			Timeout:   time.Duration(options.GenerationTimeout) * time.Second,
		})

		// Create a new router & API
		config := huma.DefaultConfig("Filmstudio API", "0.1.0")
		config.Components.SecuritySchemes = auth.Config
		router := http.NewServeMux()
		router.Handle("/metrics", promhttp.Handler())
		api := humago.New(router, config)
		api.UseMiddleware(auth.CORSMiddleware(api))
		api.UseMiddleware(logging.Middleware(logger.Named("http")))
		api.UseMiddleware(auth.APIKeyAuth(api, options))
		api.UseMiddleware(auth.AuthTermination(api, logger))

		// Add routes to the API
		env := &handlers.Env{
			Generator: gen,
			Forms:     forms,
			History:   hist,
			Logger:    logger.Named("handlers"),
		}
		if err := handlers.AddRoutes(env, api); err != nil {
			logger.Fatal("Unable to add routes", zap.Error(err))
		}

		server := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", options.Host, options.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Start server
		hooks.OnStart(func() {
			logger.Info("API server listening", zap.String("addr", server.Addr))
			err := server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Listen error", zap.Error(err))
			} else {
				logger.Info("API server stopped", zap.Int("port", options.Port))
			}
		})

		// Gracefully shutdown server
		hooks.OnStop(func() {
			logger.Info("Shutting down API server", zap.Int("port", options.Port))

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Shutdown error", zap.Error(err))
			}

			forms.Shutdown()
			cancel()
			closeHistory()
			logger.Info("Filmstudio stopped")
			_ = logger.Sync()
		})
	})

	// Run the CLI. When passed no commands, it starts the server.
	cli.Run()
}

// newBackends returns the backends answering storyboard and model calls.
func newBackends(ctx context.Context, options *models.Options) (storyboards, assets generation.Backend, err error) {
	placeholder := &generation.PlaceholderBackend{Delay: time.Duration(options.PlaceholderDelay) * time.Millisecond}

	switch options.Backend {
	case "gemini":
		storyboards, err = generation.NewGeminiBackend(ctx, options.GeminiAPIKey, "", options.GeminiModel)
	case "openai":
		storyboards, err = generation.NewOpenAIBackend(options.OpenAIAPIKey, options.OpenAIBaseURL, options.OpenAIModel)
	case "placeholder":
		storyboards = placeholder
	default:
		err = fmt.Errorf("unknown backend %q", options.Backend)
	}
	if err != nil {
		return nil, nil, err
	}

	switch options.ModelBackend {
	case "placeholder":
		assets = placeholder
	case "llm":
		assets = storyboards
	default:
		return nil, nil, fmt.Errorf("unknown model backend %q", options.ModelBackend)
	}
	return storyboards, assets, nil
}

// newEmbedder returns the embedding engine matching the generation backend,
// or nil when the backend cannot embed.
func newEmbedder(ctx context.Context, options *models.Options) (history.Embedder, error) {
	switch options.Backend {
	case "gemini":
		return embedding.NewGenAIEngine(ctx, options.GeminiAPIKey, "", options.EmbeddingModel, history.EmbeddingDimensions)
	case "openai":
		return embedding.NewOpenAIEngine(options.OpenAIAPIKey, options.OpenAIBaseURL, options.EmbeddingModel, history.EmbeddingDimensions)
	}
	return nil, nil
}

// newHistory sets up the generation history. It returns a nil service when
// the history is disabled. The returned func releases its resources.
func newHistory(ctx context.Context, options *models.Options, logger *zap.Logger) (*history.Service, func(), error) {
	noop := func() {}
	if !options.History {
		return nil, noop, nil
	}

	opts := []history.Option{history.WithLogger(logger.Named("history"))}
	embedder, err := newEmbedder(ctx, options)
	if err != nil {
		return nil, noop, err
	}
	if embedder != nil {
		opts = append(opts, history.WithEmbedder(embedder))
	} else {
		logger.Warn("Similarity search is unavailable with this backend", zap.String("backend", options.Backend))
	}
	if options.EncryptionKey != "" {
		sealer, err := crypto.NewSealer(options.EncryptionKey)
		if err != nil {
			return nil, noop, err
		}
		opts = append(opts, history.WithSealer(sealer))
	}

	switch options.HistoryStore {
	case "memory":
		return history.NewService(history.NewMemoryStore(), opts...), noop, nil
	case "postgres":
		pool, err := database.InitDB(ctx, database.ConnString(options), logger.Named("database"))
		if err != nil {
			return nil, noop, err
		}
		closePool := func() {
			logger.Info("Closing database pool", zap.Int32("active_connections", pool.Stat().TotalConns()))
			pool.Close()
		}
		return history.NewService(database.NewHistoryStore(pool), opts...), closePool, nil
	}
	return nil, noop, fmt.Errorf("unknown history store %q", options.HistoryStore)
}
