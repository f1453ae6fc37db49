package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"styleai/internal/adapter/repo"
	"styleai/internal/cinematic"
	"styleai/internal/enhance"
	"styleai/internal/http/handlers"
	"styleai/internal/http/httpapi"
	"styleai/internal/infra"
	"styleai/internal/infra/credentials"
	"styleai/internal/infra/geoip"
	"styleai/internal/middleware"
	"styleai/internal/providers/genai"
	imageprovider "styleai/internal/providers/image"
	"styleai/internal/ratelimit"
	"styleai/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	shutdownTracer, err := infra.InitTracer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracer")
	}

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sql := infra.NewSQLRunner(dbpool, logger.With().Str("component", "sql").Logger())
	if err := infra.Migrate(ctx, sql); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	params, err := infra.LoadPipelineParams(cfg.PipelineParamsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load pipeline params")
	}
	pipeline := cinematic.New(params, cinematic.WithLogger(logger.With().Str("component", "cinematic").Logger()))

	limiter := ratelimit.New(ratelimit.Limits{
		PerMinute: cfg.RateLimitPerMinute,
		PerDay:    cfg.RateLimitPerDay,
	}, nil)

	generator, model := newGenerator(ctx, cfg, sql, logger)

	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to init storage")
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	service := enhance.NewService(enhance.Options{
		Pipeline:    pipeline,
		Generator:   generator,
		Limiter:     limiter,
		Concurrency: cfg.EnhanceConcurrency,
		MaxPixels:   cfg.MaxImagePixels,
		Logger:      logger.With().Str("component", "enhance").Logger(),
	})

	app := &handlers.App{
		Logger:         logger,
		Enhancer:       service,
		Images:         repo.NewProcessedImageRepository(sql),
		Prompts:        repo.NewPromptRepository(sql),
		Usage:          repo.NewUsageRepository(sql),
		Store:          store,
		Limiter:        limiter,
		Model:          model,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	var lookup middleware.CountryLookup
	if fn := resolver.Lookup(); fn != nil {
		lookup = fn
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:         cfg.JWTSecret,
		CORSOrigins:       cfg.CORSOrigins,
		IPRateLimitPerMin: cfg.IPRateLimitPerMin,
		CountryLookup:     lookup,
		Logger:            logger,
		Tracing:           cfg.OTelEnabled,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Bool("generative", generator != nil).
			Int("concurrency", cfg.EnhanceConcurrency).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := shutdownTracer(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error().Err(err).Msg("failed to flush traces")
	}
	logger.Info().Msg("server stopped")
}

// newGenerator wires the Gemini editor when a key is configured in the
// environment or stored in integration_tokens. Without one the service
// runs the local pipeline only.
func newGenerator(ctx context.Context, cfg *infra.Config, sql infra.SQLExecutor, logger zerolog.Logger) (imageprovider.Generator, string) {
	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	creds, err := credentials.NewStore(sql).ResolveGemini(lookupCtx, credentials.Gemini{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read stored gemini credentials")
	}
	client := genai.NewClient(genai.Options{
		APIKey:  creds.APIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   creds.Model,
		Logger:  logger.With().Str("component", "genai").Logger(),
	})
	if !client.Configured() {
		logger.Info().Msg("gemini api key missing; generative enhancement disabled")
		return nil, ""
	}
	return imageprovider.NewGeminiGenerator(client), client.Model()
}

func newStore(ctx context.Context, cfg *infra.Config) (storage.Store, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix)
	}
	return storage.NewFileStore(cfg.StoragePath)
}
