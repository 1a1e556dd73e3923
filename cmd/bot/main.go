package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bobarin/voiceclone/internal/api"
	"github.com/bobarin/voiceclone/internal/bot"
	"github.com/bobarin/voiceclone/internal/config"
	"github.com/bobarin/voiceclone/internal/gateway"
	"github.com/bobarin/voiceclone/internal/pipeline"
	"github.com/bobarin/voiceclone/internal/profile"
	"github.com/bobarin/voiceclone/internal/serializer"
	"github.com/bobarin/voiceclone/internal/services"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msgf("Failed to load config: %v", err)
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().Msg("Starting voiceclone bot...")

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		log.Fatal().Msgf("Failed to create temp dir: %v", err)
	}

	// Voice profile store
	store, err := profile.New(cfg.VoicesDir)
	if err != nil {
		log.Fatal().Msgf("Failed to open profile store: %v", err)
	}

	// Synthesis engine is process-wide state: constructed once here, injected
	// into the synthesis pipeline, never re-initialized
	engine, err := services.NewXTTSEngine(cfg.TTSBinary, cfg.TTSModel, cfg.TTSLanguage)
	if err != nil {
		log.Fatal().Msgf("Failed to initialize synthesis engine: %v", err)
	}

	ffmpeg := services.NewFFmpegService(cfg.FFmpegBinary, cfg.SampleRate)

	// Bounded worker slots shared by all blocking engine/transcoder calls
	slots := pipeline.NewSlots(cfg.MaxConcurrentJobs, time.Duration(cfg.SlotWaitTimeoutSeconds)*time.Second)

	ingestor := pipeline.NewIngestor(store, ffmpeg, slots, cfg.TempDir, cfg.SampleRate)

	synth, err := pipeline.NewSynthesizer(store, engine, ffmpeg, slots, cfg.OutputsDir)
	if err != nil {
		log.Fatal().Msgf("Failed to initialize synthesis pipeline: %v", err)
	}

	service := bot.New(serializer.New(), store, ingestor, synth)

	// Telegram gateway
	tg, err := gateway.NewTelegramGateway(cfg.BotToken, service, ffmpeg)
	if err != nil {
		log.Fatal().Msgf("Failed to create telegram gateway: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Admin API (optional)
	var server *http.Server
	if cfg.APIPort != "" {
		handler := api.NewHandler(service)
		router := api.NewRouter(handler, api.RouterConfig{
			BackendAPIKey:      cfg.BackendAPIKey,
			CorsAllowedOrigins: cfg.CorsAllowedOrigins,
		})

		if cfg.BackendAPIKey == "" {
			log.Warn().Msg("No BACKEND_API_KEY set — admin API is unprotected (dev mode)")
		}

		server = &http.Server{
			Addr:    ":" + cfg.APIPort,
			Handler: router,
		}

		go func() {
			log.Info().Msgf("Admin API listening on :%s", cfg.APIPort)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Msgf("Admin API server error: %v", err)
			}
		}()
	}

	// Run the gateway in the background
	gatewayErr := make(chan error, 1)
	go func() {
		gatewayErr <- tg.Run(ctx)
	}()

	log.Info().Msgf("Bot running (model: %s, max concurrent jobs: %d)", engine.Model(), cfg.MaxConcurrentJobs)

	// Wait for interrupt signal or gateway failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutting down...")
	case err := <-gatewayErr:
		if err != nil {
			log.Error().Msgf("Gateway stopped: %v", err)
		}
	}

	cancel()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Msgf("Admin API forced to shut down: %v", err)
		}
	}

	log.Info().Msg("Bot exited")
}
