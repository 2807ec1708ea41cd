/**
 * OCR Service - Main Entry Point
 *
 * HTTP backend for layout-preserving OCR:
 * - Tesseract recognition with word-level bounding boxes
 * - Layout reconstruction (rows + column alignment) from token geometry
 * - PostgreSQL persistence for per-user OCR job records
 * - PDF and Excel export of reconstructed text
 */

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/simbunathan/ocr-app/internal/auth"
	"github.com/simbunathan/ocr-app/internal/config"
	"github.com/simbunathan/ocr-app/internal/ocr"
	"github.com/simbunathan/ocr-app/internal/server"
	"github.com/simbunathan/ocr-app/internal/service"
	"github.com/simbunathan/ocr-app/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("OCR service starting...")
	log.Printf("Configuration loaded: Port=%s, UploadDir=%s, DefaultLanguage=%s",
		cfg.Port, cfg.UploadDir, cfg.DefaultLanguage)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// Initialize storage
	log.Printf("Connecting to PostgreSQL...")
	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.Migrate(migrateCtx); err != nil {
		cancel()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	cancel()
	log.Printf("Storage initialized")

	// Wire services
	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	engine := ocr.NewTesseractEngine()
	ocrService := service.NewOCRService(store, engine, cfg.DefaultLanguage)
	authService := service.NewAuthService(store, tokens)

	handlers := server.NewHandlers(ocrService, authService, cfg.UploadDir, cfg.MaxUploadSize)
	router := server.NewRouter(handlers, tokens, store, cfg.UploadDir)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Printf("Shutdown complete")
}
