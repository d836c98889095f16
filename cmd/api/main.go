package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SGiQ/reelforge/internal/api"
	"github.com/SGiQ/reelforge/internal/config"
	"github.com/SGiQ/reelforge/internal/db"
	"github.com/SGiQ/reelforge/internal/queue"
	"github.com/SGiQ/reelforge/internal/render"
	"github.com/SGiQ/reelforge/internal/services"
	"github.com/SGiQ/reelforge/internal/storage"
	"github.com/SGiQ/reelforge/internal/worker"
)

func main() {
	log.Println("Starting ReelForge API...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Connected to database")

	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Script generation and TTS preview are optional; nil disables the
	// endpoint with a 503 instead of failing startup.
	var openaiSvc *services.OpenAIService
	if cfg.OpenAIKey != "" {
		openaiSvc = services.NewOpenAIService(cfg.OpenAIKey)
	}
	var ttsSvc services.TTSService
	if cfg.ElevenLabsKey != "" {
		ttsSvc = services.NewElevenLabsService(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
		log.Println("TTS provider: ElevenLabs")
	}

	handler := api.NewHandler(database, q, openaiSvc, ttsSvc, cfg.QRDefaultURL)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set, API is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		store := storage.New(cfg.BlobStoreURL, cfg.BlobToken)
		ffmpegSvc := services.NewFFmpegService()
		resolver := render.NewResolver(time.Duration(cfg.AssetFetchTimeoutSeconds) * time.Second)
		compositor := render.NewCompositor(render.NewFontLibrary(cfg.FontDir))

		var narrator *render.Narrator
		if ttsSvc != nil {
			narrator = render.NewNarrator(ttsSvc, ffmpegSvc)
		}

		engine := render.NewEngine(resolver, compositor, narrator, render.NewAssembler(ffmpegSvc), render.EngineOptions{
			Timing: render.Timing{
				SlideSeconds:        cfg.SlideSeconds,
				ClosingSlideSeconds: cfg.ClosingSlideSeconds,
				NarrationPadSeconds: cfg.NarrationPadSeconds,
			},
			OutputDir:    cfg.RenderOutputDir,
			SlideWorkers: cfg.SlideWorkers,
			QRDefaultURL: cfg.QRDefaultURL,
		})

		w := worker.New(database, q, store, engine, time.Duration(cfg.RenderTimeoutSeconds)*time.Second)

		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if workerCancel != nil {
		workerCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
