// carikerja-listing-service
//
// Data and authorization layer of the Carikerja job board. Exposes a JSON
// API used by the web frontend to implement:
//   - public job / category / article browsing with free-text search
//   - admin sign-in backed by password auth and a session-change stream
//   - poster upload + create/update of job postings (upload-then-persist)
//
// Session sign-ins/sign-outs are broadcast on Redis so every instance
// observes the same session-change stream.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carikerja/listing-service/internal/auth"
	"carikerja/listing-service/internal/config"
	"carikerja/listing-service/internal/db"
	"carikerja/listing-service/internal/httpapi"
	"carikerja/listing-service/internal/listing"
	"carikerja/listing-service/internal/scheduler"
	"carikerja/listing-service/internal/storage"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[listing-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[listing-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[listing-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[listing-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[listing-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[listing-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[listing-service] Redis connected ✓")

	// ── Services ─────────────────────────────────────────────────────────────
	store := listing.NewPGStore(pool)
	engine := listing.NewQueryEngine(store, logger)

	posterStore := storage.NewBucketClient(cfg.StorageURL, cfg.StorageKey)
	uploader := storage.NewUploader(posterStore, cfg.PosterBucket, logger)
	mutations := listing.NewMutationService(store, uploader, engine, rdb, logger)

	authenticator := auth.NewPGAuthenticator(pool, rdb,
		time.Duration(cfg.SessionTTLHours)*time.Hour, logger)
	manager := auth.NewManager(authenticator, logger)
	if err := manager.Start(ctx); err != nil {
		log.Printf("[listing-service] Session stream degraded: %v", err)
	}
	defer manager.Close()

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(authenticator, engine, cfg.PurgeIntervalHours)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[listing-service] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	h := httpapi.NewHandler(engine, mutations, manager, logger)
	router := httpapi.NewRouter(h, cfg.SignInPath, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[listing-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[listing-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[listing-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[listing-service] Shutdown error: %v", err)
	}
	log.Println("[listing-service] Stopped.")
}
