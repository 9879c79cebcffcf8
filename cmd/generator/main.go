// The generator job produces and stores the daily puzzle. Run it from
// cron shortly after midnight in the game timezone; it is a no-op when
// the puzzle already exists.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"wordwebs/internal/config"
	"wordwebs/internal/generate"
	"wordwebs/internal/service"
	"wordwebs/internal/store"
)

func main() {
	date := flag.String("date", "", "puzzle date (YYYY-MM-DD), defaults to today")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	alerts, err := service.NewAlertMailer(ctx, cfg.AWSRegion, cfg.AlertFromEmail, cfg.AlertToEmail, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create alert mailer: %v", err)
	}

	producer := generate.NewGeminiProducer(cfg)
	generator := generate.NewGenerator(producer, st.Archive(), generate.DefaultMaxAttempts)
	puzzles := service.NewPuzzleService(st, generator, alerts)

	if err := puzzles.GenerateDaily(ctx, *date); err != nil {
		log.Fatalf("Puzzle generation failed: %v", err)
	}
}
