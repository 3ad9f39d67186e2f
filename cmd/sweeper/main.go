package main

// Periodically deletes single-use learned answers past the retention window:
//   go run ./cmd/sweeper

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"autofill-backend/internal/fieldmap"
	"autofill-backend/internal/shared/config"
	"autofill-backend/internal/shared/storage/db"
)

const defaultIntervalHours = 24

func main() {
	cfg := config.Load()

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer sqlDB.Close()

	repo := &fieldmap.PGAnswerRepo{DB: sqlDB}
	interval := time.Duration(envInt("SWEEP_INTERVAL_HOURS", defaultIntervalHours)) * time.Hour

	log.Printf("sweeper started interval=%s", interval)

	// One pass at startup so a restarted sweeper never waits a full interval.
	runSweep(ctx, repo)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper stopped")
			return
		case <-ticker.C:
			runSweep(ctx, repo)
		}
	}
}

func runSweep(ctx context.Context, repo fieldmap.AnswerRepo) {
	deleted, err := fieldmap.SweepStaleAnswers(ctx, repo)
	if err != nil {
		log.Printf("sweep failed: %v", err)
		return
	}
	log.Printf("sweep removed %d stale answers", deleted)
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}
